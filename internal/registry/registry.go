// Package registry is the model registry and dispatcher (C2): pure
// functions mapping a Bedrock model id to the adapter family that handles
// it. There is no mutable state; the dispatch rules are fixed at compile
// time, matching the gateway's closed, non-auto-discovering model catalog.
package registry

import (
	"strings"

	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
)

// ChatFamily identifies which chat adapter handles a model id.
type ChatFamily string

const (
	FamilyClaude  ChatFamily = "claude"
	FamilyLlama2  ChatFamily = "llama2"
	FamilyLlama3  ChatFamily = "llama3"
	FamilyMistral ChatFamily = "mistral"
	FamilyCohere  ChatFamily = "cohere"
	FamilyGeneric ChatFamily = "generic"
)

// SelectChatAdapter maps a model id to the chat adapter family that should
// handle it. Any model id containing "imported-model" is routed to the
// Generic Imported family ahead of every other rule, because custom
// imported models carry no predictable id prefix of their own.
func SelectChatAdapter(modelID string) ChatFamily {
	switch {
	case strings.Contains(modelID, "imported-model"):
		return FamilyGeneric
	case strings.HasPrefix(modelID, "anthropic.claude"):
		return FamilyClaude
	case strings.HasPrefix(modelID, "meta.llama2"):
		return FamilyLlama2
	case strings.HasPrefix(modelID, "meta.llama"):
		return FamilyLlama3
	case strings.HasPrefix(modelID, "mistral.mistral"), strings.HasPrefix(modelID, "mistral.mixtral"):
		return FamilyMistral
	case strings.HasPrefix(modelID, "cohere.command-r"):
		return FamilyCohere
	default:
		return FamilyGeneric
	}
}

// EmbeddingsFamily identifies which embeddings adapter handles a model id.
type EmbeddingsFamily string

const (
	FamilyCohereEmbed EmbeddingsFamily = "cohere-embed"
	FamilyTitanEmbed  EmbeddingsFamily = "titan-embed"
)

// SelectEmbeddingsAdapter maps a model id to an embeddings adapter family.
// Unlike chat dispatch, the embeddings catalog is closed and exhaustive: an
// id that matches nothing is an UnsupportedModel error, not a generic
// fallback.
func SelectEmbeddingsAdapter(modelID string) (EmbeddingsFamily, error) {
	switch modelID {
	case "cohere.embed-multilingual-v3", "cohere.embed-english-v3":
		return FamilyCohereEmbed, nil
	case "amazon.titan-embed-text-v1", "amazon.titan-embed-text-v2:0", "amazon.titan-embed-image-v1":
		return FamilyTitanEmbed, nil
	default:
		return "", gatewayerrors.UnsupportedModel(modelID)
	}
}

// ChatModels is the closed catalog for GET /v1/models' chat entries,
// ordered to match the table the gateway advertises.
var ChatModels = []ModelInfo{
	{ID: "anthropic.claude-instant-v1", DisplayName: "Claude Instant"},
	{ID: "anthropic.claude-v2:1", DisplayName: "Claude"},
	{ID: "anthropic.claude-v2", DisplayName: "Claude"},
	{ID: "anthropic.claude-3-sonnet-20240229-v1:0", DisplayName: "Claude 3 Sonnet"},
	{ID: "anthropic.claude-3-opus-20240229-v1:0", DisplayName: "Claude 3 Opus"},
	{ID: "anthropic.claude-3-haiku-20240307-v1:0", DisplayName: "Claude 3 Haiku"},
	{ID: "meta.llama2-13b-chat-v1", DisplayName: "Llama 2 Chat 13B"},
	{ID: "meta.llama2-70b-chat-v1", DisplayName: "Llama 2 Chat 70B"},
	{ID: "meta.llama3-8b-instruct-v1:0", DisplayName: "Llama 3 8B Instruct"},
	{ID: "meta.llama3-70b-instruct-v1:0", DisplayName: "Llama 3 70B Instruct"},
	{ID: "mistral.mistral-7b-instruct-v0:2", DisplayName: "Mistral 7B Instruct"},
	{ID: "mistral.mixtral-8x7b-instruct-v0:1", DisplayName: "Mixtral 8x7B Instruct"},
	{ID: "mistral.mistral-large-2402-v1:0", DisplayName: "Mistral Large"},
	{ID: "cohere.command-r-v1:0", DisplayName: "Command R"},
	{ID: "cohere.command-r-plus-v1:0", DisplayName: "Command R Plus"},
}

// EmbeddingModels is the closed catalog for GET /v1/models' embeddings
// entries. Titan Embed is kept listed even though the upstream backend this
// was distilled from had it commented out of its own catalog: the adapter
// is fully implemented (see SPEC_FULL.md), so the gateway advertises it.
var EmbeddingModels = []ModelInfo{
	{ID: "cohere.embed-multilingual-v3", DisplayName: "Embed Multilingual"},
	{ID: "cohere.embed-english-v3", DisplayName: "Embed English"},
	{ID: "amazon.titan-embed-text-v1", DisplayName: "Titan Embeddings G1 - Text"},
	{ID: "amazon.titan-embed-text-v2:0", DisplayName: "Titan Text Embeddings V2"},
	{ID: "amazon.titan-embed-image-v1", DisplayName: "Titan Multimodal Embeddings G1"},
}

// ModelInfo is one row of the GET /v1/models catalog.
type ModelInfo struct {
	ID          string
	DisplayName string
}
