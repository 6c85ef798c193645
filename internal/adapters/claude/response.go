package claude

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
	"github.com/google/uuid"
)

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *Adapter) Generate(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	body, err := a.composeBody(ctx, req)
	if err != nil {
		return nil, err
	}
	raw, err := a.client.Invoke(ctx, req.Model, body)
	if err != nil {
		return nil, gatewayerrors.Internal(err, "invoking %s", req.Model)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, gatewayerrors.Internal(err, "decoding %s response", req.Model)
	}
	if len(resp.Content) == 0 {
		return nil, gatewayerrors.Internal(nil, "%s response carried no content blocks", req.Model)
	}

	message := resp.Content[0].Text
	finishReason := mapFinishReason(resp.StopReason)
	var toolCalls []chat.ToolCall
	var content chat.Content

	if len(req.Tools) > 0 {
		switch {
		case strings.HasPrefix(message, "Y</tool>"):
			tc, err := parseToolMessage(message)
			if err != nil {
				return nil, err
			}
			toolCalls = []chat.ToolCall{tc}
			finishReason = chat.FinishToolCalls
			content = chat.NullContent()
		case strings.HasPrefix(message, "N</tool>"):
			message = strings.TrimLeft(message[len("N</tool>"):], "\n")
			content = chat.Content{IsString: true, Text: message}
		default:
			content = chat.Content{IsString: true, Text: message}
		}
	} else {
		content = chat.Content{IsString: true, Text: message}
	}

	usage := chat.NewUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return &chat.Response{
		ID:     chat.NewMessageID(),
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []chat.Choice{{
			Index: 0,
			Message: chat.Message{
				Role:      chat.RoleAssistant,
				Content:   content,
				ToolCalls: toolCalls,
			},
			FinishReason: finishReason,
		}},
		Usage: usage,
	}, nil
}

// mapFinishReason passes Bedrock's stop_reason through unchanged (spec.md
// requires the raw value, e.g. "end_turn", not an OpenAI-enum remap), except
// for the one substitution the backend itself performs: stop_reason
// "tool_use" becomes "tool_calls". The Y-path tool-sentinel override is
// applied separately by the caller, not here.
func mapFinishReason(stopReason string) chat.FinishReason {
	if stopReason == "tool_use" {
		return chat.FinishToolCalls
	}
	return chat.FinishReason(stopReason)
}

// parseToolMessage extracts the function-call envelope out of a buffered
// "<tool>Y</tool><function>{...}</function>" response. It scans for the
// *last* occurrence of "<function>" rather than the first, matching the
// backend's own rindex-based extraction, since the tool schema description
// embedded earlier in the system prompt can itself contain the literal
// substring "<function>".
func parseToolMessage(toolMessage string) (chat.ToolCall, error) {
	idx := strings.LastIndex(toolMessage, "<function>")
	if idx < 0 {
		return chat.ToolCall{}, gatewayerrors.Internal(nil, "failed to parse tool response: no <function> tag found")
	}
	body := toolMessage[idx+len("<function>"):]
	if end := strings.Index(body, "</function>"); end >= 0 {
		body = body[:end]
	}
	body = strings.ReplaceAll(body, "\n", " ")

	var decoded struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return chat.ToolCall{}, gatewayerrors.Internal(err, "failed to parse tool response")
	}

	argsJSON, err := json.Marshal(decoded.Arguments)
	if err != nil {
		return chat.ToolCall{}, gatewayerrors.Internal(err, "failed to encode tool arguments")
	}

	return chat.ToolCall{
		ID:   "call_" + uuid.NewString(),
		Type: "function",
		Function: chat.ToolCallFunction{
			Name:      decoded.Name,
			Arguments: string(argsJSON),
		},
	}, nil
}
