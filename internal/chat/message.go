// Package chat holds the unified, OpenAI-wire-shaped request/response schema
// that every model-family adapter translates to and from. Nothing in this
// package knows about Bedrock, Anthropic, Llama, or any other backend dialect
// — it is the single representation the dispatcher, adapters, and HTTP layer
// all agree on.
package chat

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Role is one of the four OpenAI chat roles.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Request is the decoded body of POST /v1/chat/completions.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
}

// StreamOptions controls whether a trailing usage-only chunk is emitted.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

// Message is one turn. Content is either a bare string or a list of content
// parts; Content.UnmarshalJSON keeps a bare string in Text and a list in Parts.
type Message struct {
	Role       Role       `json:"role"`
	Content    Content    `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Content holds a message's content either as a plain string or as a list of
// typed parts. After decoding, a bare string sets IsString and Text, a list
// sets Parts, and a JSON null sets IsNullValue with neither Text nor Parts.
type Content struct {
	IsString bool
	IsNullValue bool
	Text     string
	Parts    []ContentPart
}

// NullContent is the assistant message content the tool_calls invariant
// requires: content must serialize as JSON null whenever tool_calls is set.
func NullContent() Content {
	return Content{IsNullValue: true}
}

// TextOnly reports whether the content is a single text part or a bare
// string, and returns its combined text.
func (c Content) TextOnly() (string, bool) {
	if c.IsString {
		return c.Text, true
	}
	if len(c.Parts) == 1 {
		if t, ok := c.Parts[0].(TextContent); ok {
			return t.Text, true
		}
	}
	return "", false
}

func (c Content) IsNull() bool {
	return c.IsNullValue
}

// IsEmpty reports whether content is absent in the sense Claude's
// tool_calls rewrite cares about: JSON null, or an empty string. It does
// not need to consider the list-of-parts case since that path never
// carries an empty assistant message.
func (c Content) IsEmpty() bool {
	return c.IsNullValue || (c.IsString && c.Text == "")
}

// ContentPart is one element of a multimodal message body.
type ContentPart interface {
	ContentType() string
}

// TextContent is a plain text part: {"type": "text", "text": "..."}.
type TextContent struct {
	Text string
}

func (TextContent) ContentType() string { return "text" }

// ImageContent is a multimodal image reference, either a data URI or an
// http(s) URL; the image resolver turns either into inline base64 bytes
// before an adapter that needs raw bytes (Claude) consumes it.
type ImageContent struct {
	URL string
}

func (ImageContent) ContentType() string { return "image_url" }

func (c *Content) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		c.IsNullValue = true
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		c.IsString = true
		c.Text = asString
		return nil
	}

	var rawParts []json.RawMessage
	if err := json.Unmarshal(data, &rawParts); err != nil {
		return fmt.Errorf("message content must be a string or an array of parts: %w", err)
	}

	parts := make([]ContentPart, 0, len(rawParts))
	for _, raw := range rawParts {
		var head struct {
			Type string `json:"type"`
			Text string `json:"text"`
			Image struct {
				URL string `json:"url"`
			} `json:"image_url"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return fmt.Errorf("invalid content part: %w", err)
		}
		switch head.Type {
		case "text":
			parts = append(parts, TextContent{Text: head.Text})
		case "image_url":
			parts = append(parts, ImageContent{URL: head.Image.URL})
		default:
			return fmt.Errorf("unsupported content part type %q", head.Type)
		}
	}
	c.Parts = parts
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsNullValue {
		return []byte("null"), nil
	}
	if c.IsString {
		return json.Marshal(c.Text)
	}
	if c.Parts == nil {
		return []byte("null"), nil
	}
	raw := make([]json.RawMessage, 0, len(c.Parts))
	for _, p := range c.Parts {
		switch v := p.(type) {
		case TextContent:
			b, err := json.Marshal(map[string]string{"type": "text", "text": v.Text})
			if err != nil {
				return nil, err
			}
			raw = append(raw, b)
		case ImageContent:
			b, err := json.Marshal(map[string]any{"type": "image_url", "image_url": map[string]string{"url": v.URL}})
			if err != nil {
				return nil, err
			}
			raw = append(raw, b)
		}
	}
	return json.Marshal(raw)
}

// Tool is an OpenAI-shaped function tool declaration.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is an assistant-issued function call, identical on requests
// (replayed history) and responses (freshly produced).
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FinishReason mirrors the OpenAI enum.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishContentFilter FinishReason = "content_filter"
)

// Usage is token accounting; Invariant: TotalTokens == PromptTokens +
// CompletionTokens always holds for every Usage value this package produces.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage builds a Usage with TotalTokens derived, never independently set.
func NewUsage(prompt, completion int) Usage {
	return Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
}

// Response is a non-streaming chat completion. Invariant: exactly one
// element in Choices.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int          `json:"index"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
}

// StreamResponse is one SSE data chunk of a streaming chat completion.
type StreamResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
}

type StreamChoice struct {
	Index        int          `json:"index"`
	Delta        Delta        `json:"delta"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
}

type Delta struct {
	Role      Role              `json:"role,omitempty"`
	Content   string            `json:"content,omitempty"`
	ToolCalls []StreamToolCall  `json:"tool_calls,omitempty"`
}

// StreamToolCall carries an index because OpenAI's wire format allows a tool
// call's fields to arrive split across multiple deltas; this gateway always
// emits a tool call in one delta; the adapters below never split one.
type StreamToolCall struct {
	Index    int              `json:"index"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// NewMessageID produces a chatcmpl-<opaque> identifier for a single request;
// one is minted per non-streaming response and once per streaming session,
// reused across every chunk in that stream.
func NewMessageID() string {
	return "chatcmpl-" + uuid.NewString()
}

// CoerceTokenCount accepts the handful of JSON shapes a token count can
// arrive in from a backend payload (json.Number, float64, string, or an
// absent/nil field) and returns 0 for anything it can't parse, matching the
// original backend's permissive int(...) cast.
func CoerceTokenCount(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case float64:
		return int(t)
	case int:
		return t
	case string:
		var n int
		if _, err := fmt.Sscanf(t, "%d", &n); err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
