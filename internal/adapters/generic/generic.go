// Package generic implements the Generic Imported Model chat adapter
// (C5-e): the fallback family for any model id the other dispatch rules
// don't claim, including every "imported-model" custom model.
package generic

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/digitallysavvy/bedrock-gateway/internal/bedrockclient"
	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
	"github.com/digitallysavvy/bedrock-gateway/internal/streamutil"
)

const (
	defaultMaxTokens   = 512
	defaultTemperature = 0.5
	defaultTopP        = 0.9
	defaultTopK        = 200
)

type Adapter struct {
	client *bedrockclient.Client
}

func New(client *bedrockclient.Client) *Adapter {
	return &Adapter{client: client}
}

// createPrompt builds "<|role|>content</s>" per message, followed by a
// trailing "<|assistant|>" to prompt the model's reply.
func createPrompt(messages []chat.Message) (string, error) {
	var sb strings.Builder
	for _, msg := range messages {
		text, ok := msg.Content.TextOnly()
		if !ok {
			return "", gatewayerrors.BadRequest("content must be a string for a generic imported model")
		}
		sb.WriteString("<|")
		sb.WriteString(string(msg.Role))
		sb.WriteString("|>")
		sb.WriteString(text)
		sb.WriteString("</s>")
	}
	sb.WriteString("<|assistant|>")
	return sb.String(), nil
}

type requestBody struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	TopK        int      `json:"top_k"`
	Stop        []string `json:"stop"`
}

func (a *Adapter) composeBody(req *chat.Request) ([]byte, error) {
	prompt, err := createPrompt(req.Messages)
	if err != nil {
		return nil, err
	}

	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil && *req.MaxTokens != 0 {
		maxTokens = *req.MaxTokens
	}
	temperature := defaultTemperature
	if req.Temperature != nil && *req.Temperature != 0 {
		temperature = *req.Temperature
	}
	topP := defaultTopP
	if req.TopP != nil && *req.TopP != 0 {
		topP = *req.TopP
	}

	return json.Marshal(requestBody{
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
		TopK:        defaultTopK,
		Stop:        []string{},
	})
}

type responseBody struct {
	Generation           string `json:"generation"`
	StopReason           string `json:"stop_reason"`
	PromptTokenCount     any    `json:"prompt_token_count"`
	GenerationTokenCount any    `json:"generation_token_count"`
}

func mapFinishReason(stopReason string) chat.FinishReason {
	if stopReason == "length" {
		return chat.FinishLength
	}
	return chat.FinishStop
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

	usage := chat.NewUsage(chat.CoerceTokenCount(resp.PromptTokenCount), chat.CoerceTokenCount(resp.GenerationTokenCount))
	return &chat.Response{
		ID:     chat.NewMessageID(),
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []chat.Choice{{
			Index:        0,
			Message:      chat.Message{Role: chat.RoleAssistant, Content: chat.Content{IsString: true, Text: resp.Generation}},
			FinishReason: mapFinishReason(resp.StopReason),
		}},
		Usage: usage,
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
		streamutil.FieldNames{Text: "generation", FinishReason: "stop_reason"},
		mapFinishReason,
	)
}
