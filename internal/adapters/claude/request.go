// Package claude implements the Anthropic Claude chat adapter (C5-a) and
// the in-band tool-use shim (C6) that lets Claude-on-Bedrock's raw
// InvokeModel API, which has no native tool-calling support, emulate one.
package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/digitallysavvy/bedrock-gateway/internal/bedrockclient"
	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
	"github.com/digitallysavvy/bedrock-gateway/internal/images"
)

const anthropicVersion = "bedrock-2023-05-31"

// toolPrompt is appended to the system prompt verbatim whenever the request
// carries tool declarations; its exact wording is part of the wire contract
// with the model, not implementation detail, so it must not be reworded.
const toolPrompt = `You have access to the following tools:
%s

Please think if you need to use a tool or not for user's question, you must:
1. Respond Y or N within <tool></tool> tags first to indicate that.
2. If a tool is needed, MUST respond a JSON object matching the following schema within <function></function> tags:
   {"name": $TOOL_NAME, "arguments": {"$PARAMETER_NAME": "$PARAMETER_VALUE", ...}}
3. If no tools is needed, respond with normal text.`

type Adapter struct {
	client *bedrockclient.Client
}

func New(client *bedrockclient.Client) *Adapter {
	return &Adapter{client: client}
}

// rawMessage is the Anthropic Messages-API shape used on the wire: content
// is either a plain string or a list of content blocks.
type rawMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type requestBody struct {
	AnthropicVersion string       `json:"anthropic_version"`
	MaxTokens        *int         `json:"max_tokens,omitempty"`
	TopP             *float64     `json:"top_p,omitempty"`
	Temperature      *float64     `json:"temperature,omitempty"`
	System           string       `json:"system,omitempty"`
	Messages         []rawMessage `json:"messages"`
	StopSequences    []string     `json:"stop_sequences,omitempty"`
}

func (a *Adapter) composeBody(ctx context.Context, req *chat.Request) ([]byte, error) {
	var systemPrompt string
	var converted []rawMessage

	for _, msg := range req.Messages {
		switch {
		case msg.Role == chat.RoleSystem:
			text, ok := msg.Content.TextOnly()
			if !ok {
				return nil, gatewayerrors.BadRequest("system message content must be a string")
			}
			systemPrompt += text + "\n"

		case msg.Role == chat.RoleUser && !msg.Content.IsString:
			parts, err := parseContentParts(ctx, msg.Content.Parts)
			if err != nil {
				return nil, err
			}
			converted = append(converted, rawMessage{Role: string(msg.Role), Content: parts})

		case msg.Role == chat.RoleAssistant && msg.Content.IsEmpty() && len(msg.ToolCalls) > 0:
			tc := msg.ToolCalls[0]
			text := fmt.Sprintf("[Tool use for `%s` with id `%s` with the following `input`]\n%s",
				tc.Function.Name, tc.ID, tc.Function.Arguments)
			converted = append(converted, rawMessage{Role: string(msg.Role), Content: text})

		case msg.Role == chat.RoleTool:
			text, _ := msg.Content.TextOnly()
			content := fmt.Sprintf("[Tool result with matching id `%s` of `%s`] ", msg.ToolCallID, text)
			converted = append(converted, rawMessage{Role: "user", Content: content})

		default:
			text, ok := msg.Content.TextOnly()
			if !ok {
				return nil, gatewayerrors.BadRequest("content must be a string for role %q", msg.Role)
			}
			converted = append(converted, rawMessage{Role: string(msg.Role), Content: text})
		}
	}

	body := requestBody{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        req.MaxTokens,
		TopP:             req.TopP,
		Temperature:      req.Temperature,
	}

	if len(req.Tools) > 0 {
		functions := make([]chat.ToolFunction, 0, len(req.Tools))
		for _, t := range req.Tools {
			functions = append(functions, t.Function)
		}
		toolsJSON, err := json.Marshal(functions)
		if err != nil {
			return nil, gatewayerrors.Internal(err, "marshaling tool declarations")
		}
		systemPrompt += fmt.Sprintf(toolPrompt, string(toolsJSON))
		converted = append(converted, rawMessage{Role: "assistant", Content: "<tool>"})
		body.StopSequences = []string{"</function>"}
	}

	body.Messages = mergeMessages(converted)
	if systemPrompt != "" {
		body.System = systemPrompt
	}

	return json.Marshal(body)
}

// mergeMessages merges consecutive string-content messages sharing the same
// role into one, deduplicating an exact-duplicate adjacent string (Bedrock
// rejects consecutive same-role turns, and the [Tool result ...] and
// [Tool use ...] rewrites above routinely produce runs of same-role
// messages that need folding back together). A message whose content is
// already a list (multimodal parts) always starts a new, unmerged entry.
func mergeMessages(messages []rawMessage) []rawMessage {
	var merged []rawMessage
	prevRole := ""
	mergedContent := ""

	flush := func() {
		if prevRole != "" {
			merged = append(merged, rawMessage{Role: prevRole, Content: mergedContent})
		}
	}

	for _, m := range messages {
		contentStr, isString := m.Content.(string)
		if m.Role != prevRole || !isString {
			flush()
			if isString {
				mergedContent = contentStr
				prevRole = m.Role
			} else {
				merged = append(merged, m)
				prevRole = ""
				mergedContent = ""
			}
			continue
		}
		if contentStr == mergedContent {
			continue
		}
		mergedContent += "\n" + contentStr
	}
	flush()
	return merged
}

func parseContentParts(ctx context.Context, parts []chat.ContentPart) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case chat.TextContent:
			out = append(out, map[string]any{"type": "text", "text": v.Text})
		case chat.ImageContent:
			resolved, err := images.Resolve(ctx, v.URL)
			if err != nil {
				return nil, err
			}
			out = append(out, map[string]any{
				"type": "image",
				"source": map[string]any{
					"type":       "base64",
					"media_type": resolved.MediaType,
					"data":       resolved.Base64Data,
				},
			})
		default:
			return nil, gatewayerrors.BadRequest("unsupported content part type %T", p)
		}
	}
	return out, nil
}
