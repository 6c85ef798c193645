// Package images is the image resolver (C3): it turns a chat message's
// image_url content part into raw base64 bytes plus a content-type, either
// by parsing a data URI directly or by fetching an http(s) URL.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"encoding/base64"

	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
	"github.com/digitallysavvy/bedrock-gateway/internal/httputil"
)

var dataURIPattern = regexp.MustCompile(`^data:(image/[a-z]*);base64,\s*`)

// Resolved is an image's bytes in the form every chat adapter's multimodal
// content block needs: a media type plus base64-encoded data.
type Resolved struct {
	MediaType string
	Base64Data string
}

// Resolve accepts either a data: URI (the fast path, handled with no
// network call) or an http(s) URL (fetched and inspected for its
// Content-Type header, defaulting to image/jpeg when that header is absent
// or not an image/* type).
func Resolve(ctx context.Context, url string) (*Resolved, error) {
	if m := dataURIPattern.FindStringSubmatch(url); m != nil {
		data := url[len(m[0]):]
		return &Resolved{MediaType: m[1], Base64Data: data}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, gatewayerrors.Internal(err, "building image fetch request for %q", url)
	}

	resp, err := httputil.DefaultHTTPClient.Do(req)
	if err != nil {
		return nil, gatewayerrors.Internal(err, "fetching image %q", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, gatewayerrors.Internal(fmt.Errorf("status %d", resp.StatusCode), "fetching image %q", url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gatewayerrors.Internal(err, "reading image body for %q", url)
	}

	mediaType := resp.Header.Get("Content-Type")
	if mediaType == "" || !strings.HasPrefix(mediaType, "image/") {
		mediaType = "image/jpeg"
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}

	return &Resolved{
		MediaType:  mediaType,
		Base64Data: base64.StdEncoding.EncodeToString(body),
	}, nil
}
