package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/bedrock-gateway/internal/adapter"
	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
	"github.com/digitallysavvy/bedrock-gateway/internal/registry"
	"github.com/digitallysavvy/bedrock-gateway/internal/sseframe"
	"github.com/digitallysavvy/bedrock-gateway/internal/telemetry"
)

// ChatCompletions handles POST /v1/chat/completions, dispatching to the
// right chat adapter and branching into the SSE path when the request asks
// to stream.
func (s *Server) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, gatewayerrors.BadRequest("invalid request body: %v", err))
		return
	}

	family := registry.SelectChatAdapter(req.Model)
	a := s.chatAdapter(family)

	ctx, span := s.tracer.Start(r.Context(), "chat.completions",
		trace.WithAttributes(append(baseSpanAttributes(string(family), req.Model),
			attribute.Bool("stream", req.Stream))...))
	defer span.End()

	if req.Stream {
		s.streamChatCompletion(ctx, w, a, &req)
		return
	}

	resp, err := a.Generate(ctx, &req)
	if err != nil {
		telemetry.RecordErrorOnSpan(span, err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) streamChatCompletion(ctx context.Context, w http.ResponseWriter, a adapter.Chat, req *chat.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, gatewayerrors.Internal(nil, "streaming unsupported by this response writer"))
		return
	}

	chunks, errs := a.Stream(ctx, req)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sw := sseframe.NewWriter(w, flusher)
	includeUsage := req.StreamOptions != nil && req.StreamOptions.IncludeUsage

	for {
		select {
		case chunk, open := <-chunks:
			if !open {
				chunks = nil
				break
			}
			// An empty-choices usage chunk is only sent when the request
			// opted in via stream_options.include_usage; every other chunk
			// (non-empty choices) is always forwarded.
			if len(chunk.Choices) == 0 && !includeUsage {
				continue
			}
			if err := sw.WriteChunk(chunk); err != nil {
				return
			}
			continue
		case err, open := <-errs:
			if !open {
				errs = nil
				break
			}
			if err != nil {
				// Mid-stream error: truncate without the terminal [DONE]
				// frame, matching the framer's error-handling contract.
				return
			}
			continue
		case <-ctx.Done():
			return
		}
		if chunks == nil && errs == nil {
			break
		}
	}

	_ = sw.WriteDone()
}
