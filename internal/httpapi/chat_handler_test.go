package httpapi

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
	"github.com/digitallysavvy/bedrock-gateway/internal/sseframe"
)

// fakeChatAdapter streams one ordinary content chunk followed by a trailing
// empty-choices usage chunk, mirroring what every real adapter's streaming
// path produces once amazon-bedrock-invocationMetrics is seen.
type fakeChatAdapter struct{}

func (fakeChatAdapter) Generate(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	return nil, nil
}

func (fakeChatAdapter) Stream(ctx context.Context, req *chat.Request) (<-chan chat.StreamResponse, <-chan error) {
	out := make(chan chat.StreamResponse, 2)
	errs := make(chan error)
	usage := chat.NewUsage(3, 5)
	out <- chat.StreamResponse{
		ID:      "msg_1",
		Object:  "chat.completion.chunk",
		Model:   req.Model,
		Choices: []chat.StreamChoice{{Index: 0, Delta: chat.Delta{Role: chat.RoleAssistant, Content: "hi"}}},
	}
	out <- chat.StreamResponse{
		ID:      "msg_1",
		Object:  "chat.completion.chunk",
		Model:   req.Model,
		Choices: []chat.StreamChoice{},
		Usage:   &usage,
	}
	close(out)
	close(errs)
	return out, errs
}

func TestStreamChatCompletion_DropsUsageOnlyChunkWithoutIncludeUsage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := &chat.Request{Model: "anthropic.claude-3-sonnet-20240229-v1:0", Stream: true}

	s := &Server{}
	s.streamChatCompletion(context.Background(), rec, fakeChatAdapter{}, req)

	sc := sseframe.NewScanner(rec.Body)
	var frames []string
	for {
		frame, err := sc.Next()
		if err != nil {
			break
		}
		frames = append(frames, frame)
	}

	require.Len(t, frames, 2)
	require.Contains(t, frames[0], `"hi"`)
	require.Equal(t, "[DONE]", frames[1])
}

func TestStreamChatCompletion_EmitsUsageOnlyChunkWithIncludeUsage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := &chat.Request{
		Model:         "anthropic.claude-3-sonnet-20240229-v1:0",
		Stream:        true,
		StreamOptions: &chat.StreamOptions{IncludeUsage: true},
	}

	s := &Server{}
	s.streamChatCompletion(context.Background(), rec, fakeChatAdapter{}, req)

	sc := sseframe.NewScanner(rec.Body)
	var frames []string
	for {
		frame, err := sc.Next()
		if err != nil {
			break
		}
		frames = append(frames, frame)
	}

	require.Len(t, frames, 3)
	require.Contains(t, frames[0], `"hi"`)
	require.Contains(t, frames[1], `"usage"`)
	require.Equal(t, "[DONE]", frames[2])
}
