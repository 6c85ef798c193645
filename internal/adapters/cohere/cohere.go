// Package cohere implements the Cohere Command R chat adapter (C5-d): the
// last message must be from the user, and everything before it becomes
// Cohere's USER/CHATBOT chat_history.
package cohere

import (
	"context"
	"encoding/json"

	"github.com/digitallysavvy/bedrock-gateway/internal/bedrockclient"
	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
	"github.com/digitallysavvy/bedrock-gateway/internal/streamutil"
)

type Adapter struct {
	client *bedrockclient.Client
}

func New(client *bedrockclient.Client) *Adapter {
	return &Adapter{client: client}
}

type historyEntry struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

func parseHistoryMessage(msg chat.Message) (historyEntry, error) {
	if msg.Role != chat.RoleUser && msg.Role != chat.RoleAssistant {
		return historyEntry{}, gatewayerrors.BadRequest("only user or assistant message is supported")
	}
	text, ok := msg.Content.TextOnly()
	if !ok {
		return historyEntry{}, gatewayerrors.BadRequest("content must be a string for Command R model")
	}
	role := "USER"
	if msg.Role == chat.RoleAssistant {
		role = "CHATBOT"
	}
	return historyEntry{Role: role, Message: text}, nil
}

type requestBody struct {
	Message     string         `json:"message"`
	ChatHistory []historyEntry `json:"chat_history"`
	MaxTokens   *int           `json:"max_tokens,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	P           *float64       `json:"p,omitempty"`
}

func (a *Adapter) composeBody(req *chat.Request) ([]byte, error) {
	if len(req.Messages) == 0 || req.Messages[len(req.Messages)-1].Role != chat.RoleUser {
		return nil, gatewayerrors.BadRequest("last message should be a valid user message")
	}

	history := make([]historyEntry, 0, len(req.Messages)-1)
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		entry, err := parseHistoryMessage(msg)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}

	lastText, ok := req.Messages[len(req.Messages)-1].Content.TextOnly()
	if !ok {
		return nil, gatewayerrors.BadRequest("content must be a string for Command R model")
	}

	return json.Marshal(requestBody{
		Message:     lastText,
		ChatHistory: history,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		P:           req.TopP,
	})
}

type responseBody struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

func mapFinishReason(reason string) chat.FinishReason {
	switch reason {
	case "MAX_TOKENS":
		return chat.FinishLength
	default:
		return chat.FinishStop
	}
}

func (a *Adapter) Generate(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	body, err := a.composeBody(req)
	if err != nil {
		return nil, err
	}
	raw, err := a.client.Invoke(ctx, req.Model, body)
	if err != nil {
		return nil, gatewayerrors.Internal(err, "invoking %s", req.Model)
	}
	var resp responseBody
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, gatewayerrors.Internal(err, "decoding %s response", req.Model)
	}

	return &chat.Response{
		ID:     chat.NewMessageID(),
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []chat.Choice{{
			Index:        0,
			Message:      chat.Message{Role: chat.RoleAssistant, Content: chat.Content{IsString: true, Text: resp.Text}},
			FinishReason: mapFinishReason(resp.FinishReason),
		}},
		// Command R's InvokeModel payload carries no token usage fields.
		Usage: chat.NewUsage(0, 0),
	}, nil
}

func (a *Adapter) Stream(ctx context.Context, req *chat.Request) (<-chan chat.StreamResponse, <-chan error) {
	body, err := a.composeBody(req)
	if err != nil {
		errs := make(chan error, 1)
		errs <- err
		close(errs)
		out := make(chan chat.StreamResponse)
		close(out)
		return out, errs
	}

	chunks, srcErrs := a.client.InvokeStream(ctx, req.Model, body)
	messageID := chat.NewMessageID()
	return streamutil.Run(ctx, chunks, srcErrs, messageID, req.Model,
		streamutil.FieldNames{Text: "text", FinishReason: "finish_reason"},
		mapFinishReason,
	)
}
