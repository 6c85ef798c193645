package bedrockclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/digitallysavvy/bedrock-gateway/internal/httputil"
)

// Config configures how outbound requests to bedrock-runtime are
// authenticated. Exactly one of BearerToken or the AWS credential triple
// should be set; BearerToken takes precedence when both are present, mirroring
// Bedrock's own support for the AWS_BEARER_TOKEN_BEDROCK shortcut alongside
// full SigV4 credentials.
type Config struct {
	Region          string
	BearerToken     string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Client invokes Bedrock's raw per-model InvokeModel and
// InvokeModelWithResponseStream operations. It is process-wide, stateless
// after construction, and safe for concurrent use by every in-flight
// request's adapter.
type Client struct {
	cfg        Config
	signer     *awsSigner
	httpClient *http.Client
	endpoint   string
}

func New(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		signer:     newAWSSigner(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken, cfg.Region),
		httpClient: httputil.DefaultHTTPClient,
		endpoint:   fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", cfg.Region),
	}
}

func (c *Client) authenticate(req *http.Request, body []byte) error {
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
		return nil
	}
	return c.signer.signRequest(req, body)
}

// Invoke calls InvokeModel and returns the raw response body bytes.
func (c *Client) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/model/%s/invoke", c.endpoint, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if err := c.authenticate(req, body); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &InvokeError{StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}

// InvokeError is returned when Bedrock responds with a non-200 status; the
// HTTP layer's writeError inspects StatusCode to decide between a 400-class
// validation error and a 500-class internal error per the gateway's error
// taxonomy.
type InvokeError struct {
	StatusCode int
	Body       []byte
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("bedrock invoke failed: status %d: %s", e.StatusCode, string(e.Body))
}

// StreamChunk is one decoded chunk from InvokeModelWithResponseStream: the
// family-specific JSON payload for a "chunk" event, already base64-decoded
// out of the eventstream envelope's "bytes" field.
type StreamChunk struct {
	Bytes []byte
}

// InvokeStream calls InvokeModelWithResponseStream and returns a channel of
// decoded chunks. The returned channel is closed when the stream ends or the
// context is cancelled; errs receives at most one error before closing.
// Closing the response body (done automatically when the channel closes or
// ctx is cancelled) is what makes a client disconnect abandon the backend
// iterator, per the gateway's cancellation contract.
func (c *Client) InvokeStream(ctx context.Context, modelID string, body []byte) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		url := fmt.Sprintf("%s/model/%s/invoke-with-response-stream", c.endpoint, modelID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			errs <- err
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/vnd.amazon.eventstream")
		if err := c.authenticate(req, body); err != nil {
			errs <- err
			return
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			errs <- &InvokeError{StatusCode: resp.StatusCode, Body: respBody}
			return
		}

		dec := newEventStreamDecoder(resp.Body)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			ev, err := dec.readEvent()
			if err == io.EOF {
				return
			}
			if err != nil {
				errs <- err
				return
			}

			switch ev.EventType {
			case "exception", "modelStreamErrorException", "internalServerException", "throttlingException", "validationException":
				errs <- fmt.Errorf("bedrock stream error (%s): %s", ev.EventType, string(ev.Payload))
				return
			case "chunk":
				var envelope struct {
					Bytes string `json:"bytes"`
				}
				if err := json.Unmarshal(ev.Payload, &envelope); err != nil {
					errs <- fmt.Errorf("eventstream: malformed chunk envelope: %w", err)
					return
				}
				decoded, err := base64.StdEncoding.DecodeString(envelope.Bytes)
				if err != nil {
					errs <- fmt.Errorf("eventstream: malformed chunk base64: %w", err)
					return
				}
				select {
				case chunks <- StreamChunk{Bytes: decoded}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return chunks, errs
}
