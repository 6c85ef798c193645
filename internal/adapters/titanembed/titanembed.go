// Package titanembed implements the Amazon Titan Embed embeddings adapter
// (C7): single-string input only, with an optional embeddingConfig for the
// multimodal titan-embed-image-v1 variant.
package titanembed

import (
	"context"
	"encoding/json"

	"github.com/digitallysavvy/bedrock-gateway/internal/bedrockclient"
	"github.com/digitallysavvy/bedrock-gateway/internal/embed"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
)

type Adapter struct {
	client *bedrockclient.Client
}

func New(client *bedrockclient.Client) *Adapter {
	return &Adapter{client: client}
}

type requestBody struct {
	InputText       string         `json:"inputText"`
	EmbeddingConfig map[string]int `json:"embeddingConfig,omitempty"`
}

type responseBody struct {
	Embedding          []float32 `json:"embedding"`
	InputTextTokenCount int      `json:"inputTextTokenCount"`
}

func resolveInputText(in embed.Input) (string, error) {
	switch in.Kind {
	case embed.InputString:
		return in.Strings[0], nil
	case embed.InputStringList:
		if len(in.Strings) == 1 {
			return in.Strings[0], nil
		}
	}
	return "", gatewayerrors.BadRequest("amazon Titan Embeddings models support only a single string as input")
}

// buildRequestBody applies the image model's default embeddingConfig only
// when the client supplied none; other models get no default.
func buildRequestBody(req *embed.Request, inputText string) requestBody {
	body := requestBody{InputText: inputText, EmbeddingConfig: req.EmbeddingConfig}
	if body.EmbeddingConfig == nil && req.Model == "amazon.titan-embed-image-v1" {
		body.EmbeddingConfig = map[string]int{"outputEmbeddingLength": 1024}
	}
	return body
}

func (a *Adapter) Embed(ctx context.Context, req *embed.Request) (*embed.Response, error) {
	inputText, err := resolveInputText(req.Input)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(buildRequestBody(req, inputText))
	if err != nil {
		return nil, gatewayerrors.Internal(err, "marshaling Titan Embed request")
	}

	raw, err := a.client.Invoke(ctx, req.Model, payload)
	if err != nil {
		return nil, gatewayerrors.Internal(err, "invoking %s", req.Model)
	}

	var resp responseBody
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, gatewayerrors.Internal(err, "decoding %s response", req.Model)
	}

	return &embed.Response{
		Object: "list",
		Data: []embed.Embedding{{
			Object:    "embedding",
			Index:     0,
			Embedding: embed.EncodeEmbedding(resp.Embedding, req.EncodingFormat),
		}},
		Model: req.Model,
		Usage: embed.Usage{PromptTokens: resp.InputTextTokenCount, TotalTokens: resp.InputTextTokenCount},
	}, nil
}
