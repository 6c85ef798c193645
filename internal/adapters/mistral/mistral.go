// Package mistral implements the Mistral / Mixtral chat adapter (C5-c): a
// Llama-2-like prompt template without the <<SYS>> system wrapper, and a
// backend that never reports token usage.
package mistral

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/digitallysavvy/bedrock-gateway/internal/bedrockclient"
	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
)

type Adapter struct {
	client *bedrockclient.Client
}

func New(client *bedrockclient.Client) *Adapter {
	return &Adapter{client: client}
}

// convertPrompt builds:
//
//	<s>[INST] \n{system}\n{user1} [/INST] {reply1}</s>
//	<s>[INST] {user2} [/INST]
//
// Unlike Llama 2, the system message is concatenated directly ahead of the
// conversation rather than wrapped in <<SYS>>...<</SYS>>.
func convertPrompt(messages []chat.Message) (string, error) {
	const bos = "<s>"
	const eos = "</s>"

	var body, system strings.Builder
	endTurn := false

	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			text, ok := msg.Content.TextOnly()
			if !ok {
				return "", gatewayerrors.BadRequest("content must be a string for Mistral/Mixtral model")
			}
			system.WriteString("\n")
			system.WriteString(text)
			system.WriteString("\n")
			continue
		}
		if msg.Role == chat.RoleTool {
			return "", gatewayerrors.BadRequest("tool prompt is not supported for Mistral/Mixtral model")
		}
		text, ok := msg.Content.TextOnly()
		if !ok {
			return "", gatewayerrors.BadRequest("content must be a string for Mistral/Mixtral model")
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

	return bos + "[INST] " + system.String() + body.String(), nil
}

type requestBody struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

func (a *Adapter) composeBody(req *chat.Request) ([]byte, error) {
	prompt, err := convertPrompt(req.Messages)
	if err != nil {
		return nil, err
	}
	return json.Marshal(requestBody{
		Prompt:      prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
}

type output struct {
	Text       string `json:"text"`
	StopReason string `json:"stop_reason"`
}

type responseBody struct {
	Outputs []output `json:"outputs"`
}

// invocationMetrics is Bedrock's usage block, attached to the final stream
// chunk; Mistral/Mixtral nests text/stop_reason under outputs[0] but carries
// this at the top level like every other family.
type invocationMetrics struct {
	InputTokenCount  int `json:"inputTokenCount"`
	OutputTokenCount int `json:"outputTokenCount"`
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
	if len(resp.Outputs) == 0 {
		return nil, gatewayerrors.Internal(nil, "%s response carried no outputs", req.Model)
	}
	out := resp.Outputs[0]

	// Mistral/Mixtral does not report token usage.
	return &chat.Response{
		ID:     chat.NewMessageID(),
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []chat.Choice{{
			Index:        0,
			Message:      chat.Message{Role: chat.RoleAssistant, Content: chat.Content{IsString: true, Text: out.Text}},
			FinishReason: mapFinishReason(out.StopReason),
		}},
		Usage: chat.NewUsage(0, 0),
	}, nil
}

func (a *Adapter) Stream(ctx context.Context, req *chat.Request) (<-chan chat.StreamResponse, <-chan error) {
	out := make(chan chat.StreamResponse)
	errs := make(chan error, 1)

	body, err := a.composeBody(req)
	if err != nil {
		errs <- err
		close(errs)
		close(out)
		return out, errs
	}

	chunks, srcErrs := a.client.InvokeStream(ctx, req.Model, body)
	messageID := chat.NewMessageID()

	go func() {
		defer close(out)
		defer close(errs)

		firstDelta := true
		for chunk := range chunks {
			var resp responseBody
			if err := json.Unmarshal(chunk.Bytes, &resp); err != nil {
				errs <- err
				return
			}

			if len(resp.Outputs) > 0 {
				o := resp.Outputs[0]
				if o.Text != "" || o.StopReason != "" {
					delta := chat.Delta{Content: o.Text}
					if firstDelta {
						delta.Role = chat.RoleAssistant
						firstDelta = false
					}
					streamResp := chat.StreamResponse{
						ID:     messageID,
						Object: "chat.completion.chunk",
						Model:  req.Model,
						Choices: []chat.StreamChoice{{
							Index: 0,
							Delta: delta,
						}},
					}
					if o.StopReason != "" {
						streamResp.Choices[0].FinishReason = mapFinishReason(o.StopReason)
					}
					select {
					case out <- streamResp:
					case <-ctx.Done():
						return
					}
				}
			}

			var metrics struct {
				Metrics *invocationMetrics `json:"amazon-bedrock-invocationMetrics"`
			}
			if err := json.Unmarshal(chunk.Bytes, &metrics); err == nil && metrics.Metrics != nil {
				usage := chat.NewUsage(metrics.Metrics.InputTokenCount, metrics.Metrics.OutputTokenCount)
				select {
				case out <- chat.StreamResponse{
					ID:      messageID,
					Object:  "chat.completion.chunk",
					Model:   req.Model,
					Choices: []chat.StreamChoice{},
					Usage:   &usage,
				}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err, ok := <-srcErrs; ok && err != nil {
			errs <- err
		}
	}()

	return out, errs
}
