// Package llama implements the Llama 2 / Llama 3 chat adapter (C5-b): one
// family, two incompatible prompt templates, selected on the
// "meta.llama2" id prefix.
package llama

import (
	"context"
	"encoding/json"
	"strings"

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

// createLlama3Prompt builds:
//
//	<|begin_of_text|><|start_header_id|>system<|end_header_id|>
//
//	{system}<|eot_id|><|start_header_id|>user<|end_header_id|>
//
//	{user}<|eot_id|><|start_header_id|>assistant<|end_header_id|>
func createLlama3Prompt(messages []chat.Message) (string, error) {
	var sb strings.Builder
	sb.WriteString("<|begin_of_text|>")
	for _, msg := range messages {
		text, ok := msg.Content.TextOnly()
		if !ok {
			return "", gatewayerrors.BadRequest("content must be a string for Llama 3 model")
		}
		sb.WriteString("<|start_header_id|>")
		sb.WriteString(string(msg.Role))
		sb.WriteString("<|end_header_id|>\n\n")
		sb.WriteString(text)
		sb.WriteString("<|eot_id|>")
	}
	sb.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")
	return sb.String(), nil
}

// createLlama2Prompt builds:
//
//	<s>[INST] <<SYS>>\n{system}\n<</SYS>>{user1} [/INST] {reply1}</s>
//	<s>[INST] {user2} [/INST]
func createLlama2Prompt(messages []chat.Message) (string, error) {
	const bos = "<s>"
	const eos = "</s>"

	var body strings.Builder
	var system strings.Builder
	endTurn := false

	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			text, ok := msg.Content.TextOnly()
			if !ok {
				return "", gatewayerrors.BadRequest("content must be a string for Llama 2 model")
			}
			system.WriteString("\n")
			system.WriteString(text)
			system.WriteString("\n")
			continue
		}
		if msg.Role == chat.RoleTool {
			return "", gatewayerrors.BadRequest("tool prompt is not supported for Llama 2 model")
		}
		text, ok := msg.Content.TextOnly()
		if !ok {
			return "", gatewayerrors.BadRequest("content must be a string for Llama 2 model")
		}
		if msg.Role == chat.RoleUser {
			if endTurn {
				body.WriteString(bos)
				body.WriteString("[INST] ")
			}
			body.WriteString(text)
			body.WriteString(" [/INST] ")
			endTurn = false
		} else {
			body.WriteString(text)
			body.WriteString(eos)
			endTurn = true
		}
	}

	systemPrompt := system.String()
	if systemPrompt != "" {
		systemPrompt = "<<SYS>>" + systemPrompt + "<</SYS>>"
	}
	return bos + "[INST] " + systemPrompt + body.String(), nil
}

type requestBody struct {
	Prompt      string   `json:"prompt"`
	MaxGenLen   *int     `json:"max_gen_len,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

func (a *Adapter) composeBody(req *chat.Request) ([]byte, error) {
	var prompt string
	var err error
	if strings.HasPrefix(req.Model, "meta.llama2") {
		prompt, err = createLlama2Prompt(req.Messages)
	} else {
		prompt, err = createLlama3Prompt(req.Messages)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(requestBody{
		Prompt:      prompt,
		MaxGenLen:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
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
