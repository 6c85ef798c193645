package claude

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
)

// toolState tracks the rolling buffer used to detect and extract Claude's
// in-band tool-use sentinel while streaming. The Y/N answer and, on the Y
// path, the entire function-call envelope arrive as ordinary text deltas
// indistinguishable from prose until decoded by this state machine. A first
// delta of exactly "Y" starts buffering the envelope; any other first delta
// is skipped together with the next two, on the assumption that "N</tool>"
// arrives as exactly 3 deltas; after that, text streams through with leading
// newlines stripped from the first emitted delta.
type toolState struct {
	toolMessage string
	firstToken  bool
	index       int
}

func newToolState() *toolState {
	return &toolState{firstToken: true}
}

// handleContentBlockDelta returns the text to emit for this delta (possibly
// empty) and whether the delta should be swallowed entirely (buffered into
// the tool-call envelope, or skipped as part of the fixed "N</tool>" prefix).
func (s *toolState) handleContentBlockDelta(text string) (emit string, swallow bool) {
	if s.toolMessage == "" && s.index == 0 && text == "Y" {
		s.toolMessage = "Y"
		return "", true
	}
	if s.toolMessage != "" {
		s.toolMessage += text
		return "", true
	}
	if s.index < 3 {
		s.index++
		return "", true
	}
	if s.firstToken {
		text = strings.TrimLeft(text, "\n")
		s.firstToken = false
	}
	return text, false
}

func (a *Adapter) Stream(ctx context.Context, req *chat.Request) (<-chan chat.StreamResponse, <-chan error) {
	out := make(chan chat.StreamResponse)
	errs := make(chan error, 1)

	body, err := a.composeBody(ctx, req)
	if err != nil {
		errs <- err
		close(errs)
		close(out)
		return out, errs
	}

	chunks, srcErrs := a.client.InvokeStream(ctx, req.Model, body)
	messageID := chat.NewMessageID()
	toolsRequested := len(req.Tools) > 0

	go func() {
		defer close(out)
		defer close(errs)

		state := newToolState()
		firstDelta := true

		emit := func(text string, finishReason chat.FinishReason, toolCalls []chat.ToolCall) bool {
			if text == "" && finishReason == "" && len(toolCalls) == 0 {
				return true
			}
			delta := chat.Delta{Content: text}
			if firstDelta {
				delta.Role = chat.RoleAssistant
				firstDelta = false
			}
			if len(toolCalls) > 0 {
				delta.ToolCalls = make([]chat.StreamToolCall, len(toolCalls))
				for i, tc := range toolCalls {
					delta.ToolCalls[i] = chat.StreamToolCall{Index: i, ID: tc.ID, Type: tc.Type, Function: tc.Function}
				}
			}
			resp := chat.StreamResponse{
				ID:     messageID,
				Object: "chat.completion.chunk",
				Model:  req.Model,
				Choices: []chat.StreamChoice{{
					Index:        0,
					Delta:        delta,
					FinishReason: finishReason,
				}},
			}
			select {
			case out <- resp:
				return true
			case <-ctx.Done():
				return false
			}
		}

		emitUsage := func(input, output int) bool {
			usage := chat.NewUsage(input, output)
			select {
			case out <- chat.StreamResponse{
				ID:      messageID,
				Object:  "chat.completion.chunk",
				Model:   req.Model,
				Choices: []chat.StreamChoice{},
				Usage:   &usage,
			}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for chunk := range chunks {
			var ev map[string]json.RawMessage
			if err := json.Unmarshal(chunk.Bytes, &ev); err != nil {
				errs <- err
				return
			}
			var evType string
			if err := json.Unmarshal(ev["type"], &evType); err != nil {
				errs <- err
				return
			}

			switch evType {
			case "message_stop":
				if rawMetrics, ok := ev["amazon-bedrock-invocationMetrics"]; ok {
					var m struct {
						InputTokenCount  int `json:"inputTokenCount"`
						OutputTokenCount int `json:"outputTokenCount"`
					}
					if err := json.Unmarshal(rawMetrics, &m); err == nil {
						if !emitUsage(m.InputTokenCount, m.OutputTokenCount) {
							return
						}
					}
				}
				return

			case "message_delta":
				var delta struct {
					Delta struct {
						StopReason string `json:"stop_reason"`
					} `json:"delta"`
				}
				if err := json.Unmarshal(chunk.Bytes, &delta); err != nil {
					errs <- err
					return
				}
				finishReason := mapFinishReason(delta.Delta.StopReason)

				if toolsRequested && state.toolMessage != "" {
					tc, err := parseToolMessage(state.toolMessage)
					if err != nil {
						errs <- err
						return
					}
					if !emit("", "", []chat.ToolCall{tc}) {
						return
					}
					finishReason = chat.FinishToolCalls
				}
				if !emit("", finishReason, nil) {
					return
				}

			case "content_block_delta":
				var cbd struct {
					Delta struct {
						Text string `json:"text"`
					} `json:"delta"`
				}
				if err := json.Unmarshal(chunk.Bytes, &cbd); err != nil {
					errs <- err
					return
				}
				text := cbd.Delta.Text
				if toolsRequested {
					var swallow bool
					text, swallow = state.handleContentBlockDelta(text)
					if swallow {
						continue
					}
				}
				if !emit(text, "", nil) {
					return
				}

			default:
				continue
			}
		}

		if err, ok := <-srcErrs; ok && err != nil {
			errs <- err
		}
	}()

	return out, errs
}
