// Package cohereembed implements the Cohere Embed embeddings adapter (C7):
// a single batched InvokeModel call carrying every input text at once,
// unlike a per-input loop.
package cohereembed

import (
	"context"
	"encoding/json"

	"github.com/digitallysavvy/bedrock-gateway/internal/bedrockclient"
	"github.com/digitallysavvy/bedrock-gateway/internal/embed"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
	"github.com/digitallysavvy/bedrock-gateway/internal/tokenizer"
)

type Adapter struct {
	client *bedrockclient.Client
}

func New(client *bedrockclient.Client) *Adapter {
	return &Adapter{client: client}
}

// resolveTexts turns the tagged Input variant into the flat list of texts
// Cohere Embed's request body wants, decoding any pre-tokenized rows back
// into text via the cl100k_base tokenizer.
func resolveTexts(in embed.Input) ([]string, error) {
	switch in.Kind {
	case embed.InputString, embed.InputStringList:
		return in.Strings, nil
	case embed.InputTokenList, embed.InputTokenListOfLists:
		texts := make([]string, len(in.TokenLists))
		for i, row := range in.TokenLists {
			text, err := tokenizer.Decode(row)
			if err != nil {
				return nil, gatewayerrors.Internal(err, "decoding pre-tokenized embeddings input")
			}
			texts[i] = text
		}
		return texts, nil
	default:
		return nil, gatewayerrors.BadRequest("unrecognized embeddings input shape")
	}
}

type requestBody struct {
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
	Truncate  string   `json:"truncate"`
}

type responseBody struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (a *Adapter) Embed(ctx context.Context, req *embed.Request) (*embed.Response, error) {
	texts, err := resolveTexts(req.Input)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(requestBody{
		Texts:     texts,
		InputType: "search_document",
		Truncate:  "END",
	})
	if err != nil {
		return nil, gatewayerrors.Internal(err, "marshaling Cohere Embed request")
	}

	raw, err := a.client.Invoke(ctx, req.Model, body)
	if err != nil {
		return nil, gatewayerrors.Internal(err, "invoking %s", req.Model)
	}

	var resp responseBody
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, gatewayerrors.Internal(err, "decoding %s response", req.Model)
	}

	data := make([]embed.Embedding, len(resp.Embeddings))
	for i, vec := range resp.Embeddings {
		data[i] = embed.Embedding{
			Object:    "embedding",
			Index:     i,
			Embedding: embed.EncodeEmbedding(vec, req.EncodingFormat),
		}
	}

	// Cohere Embed's InvokeModel payload carries no token usage fields.
	return &embed.Response{
		Object: "list",
		Data:   data,
		Model:  req.Model,
		Usage:  embed.Usage{PromptTokens: 0, TotalTokens: 0},
	}, nil
}
