// Package bedrockclient is the outbound transport to Bedrock's raw
// per-model InvokeModel / InvokeModelWithResponseStream API. It knows
// nothing about any model family's JSON dialect; adapters hand it an opaque
// request body and get back an opaque response body or event stream.
package bedrockclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// awsSigner implements SigV4 request signing for the bedrock-runtime
// service. Bedrock also accepts a plain bearer token (AWS_BEARER_TOKEN_BEDROCK)
// which, when present, is used instead and this signer is skipped entirely.
type awsSigner struct {
	accessKeyID     string
	secretAccessKey string
	sessionToken    string
	region          string
}

func newAWSSigner(accessKeyID, secretAccessKey, sessionToken, region string) *awsSigner {
	return &awsSigner{
		accessKeyID:     accessKeyID,
		secretAccessKey: secretAccessKey,
		sessionToken:    sessionToken,
		region:          region,
	}
}

const service = "bedrock"

func (s *awsSigner) signRequest(req *http.Request, payload []byte) error {
	now := time.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	req.Header.Set("Host", req.URL.Host)
	req.Header.Set("X-Amz-Date", amzDate)
	if s.sessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", s.sessionToken)
	}

	canonicalRequest, signedHeaders := s.buildCanonicalRequest(req, payload)
	credentialScope := s.credentialScope(dateStamp)
	stringToSign := s.buildStringToSign(amzDate, credentialScope, canonicalRequest)
	signature := s.calculateSignature(dateStamp, stringToSign)

	req.Header.Set("Authorization", s.buildAuthorizationHeader(amzDate, credentialScope, signedHeaders, signature))
	return nil
}

func (s *awsSigner) buildCanonicalRequest(req *http.Request, payload []byte) (canonicalRequest, signedHeaders string) {
	canonicalURI := req.URL.EscapedPath()
	if canonicalURI == "" {
		canonicalURI = "/"
	}
	canonicalQueryString := s.buildCanonicalQueryString(req.URL)
	canonicalHeaders, signedHeaders := s.buildCanonicalHeaders(req)
	payloadHash := hashPayload(payload)

	canonicalRequest = strings.Join([]string{
		req.Method,
		canonicalURI,
		canonicalQueryString,
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")
	return canonicalRequest, signedHeaders
}

func (s *awsSigner) buildCanonicalQueryString(u *url.URL) string {
	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range q[k] {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

func (s *awsSigner) buildCanonicalHeaders(req *http.Request) (canonicalHeaders, signedHeaders string) {
	headers := map[string]string{
		"host":       req.Header.Get("Host"),
		"x-amz-date": req.Header.Get("X-Amz-Date"),
	}
	if t := req.Header.Get("X-Amz-Security-Token"); t != "" {
		headers["x-amz-security-token"] = t
	}
	if ct := req.Header.Get("Content-Type"); ct != "" {
		headers["content-type"] = ct
	}

	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(strings.TrimSpace(headers[name]))
		sb.WriteString("\n")
	}
	return sb.String(), strings.Join(names, ";")
}

func hashPayload(payload []byte) string {
	h := sha256.Sum256(payload)
	return hex.EncodeToString(h[:])
}

func (s *awsSigner) buildStringToSign(amzDate, credentialScope, canonicalRequest string) string {
	h := sha256.Sum256([]byte(canonicalRequest))
	return strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		credentialScope,
		hex.EncodeToString(h[:]),
	}, "\n")
}

func (s *awsSigner) credentialScope(dateStamp string) string {
	return fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, s.region, service)
}

func (s *awsSigner) calculateSignature(dateStamp, stringToSign string) string {
	kDate := hmacSHA256([]byte("AWS4"+s.secretAccessKey), dateStamp)
	kRegion := hmacSHA256(kDate, s.region)
	kService := hmacSHA256(kRegion, service)
	kSigning := hmacSHA256(kService, "aws4_request")
	signature := hmacSHA256(kSigning, stringToSign)
	return hex.EncodeToString(signature)
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func (s *awsSigner) buildAuthorizationHeader(amzDate, credentialScope, signedHeaders, signature string) string {
	return fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		s.accessKeyID, credentialScope, signedHeaders, signature,
	)
}
