package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
)

func TestSelectChatAdapter(t *testing.T) {
	cases := map[string]ChatFamily{
		"anthropic.claude-3-sonnet-20240229-v1:0": FamilyClaude,
		"meta.llama2-13b-chat-v1":                 FamilyLlama2,
		"meta.llama3-8b-instruct-v1:0":             FamilyLlama3,
		"mistral.mistral-7b-instruct-v0:2":         FamilyMistral,
		"mistral.mixtral-8x7b-instruct-v0:1":       FamilyMistral,
		"cohere.command-r-v1:0":                   FamilyCohere,
		"some-account.my-imported-model-v1":        FamilyGeneric,
		"unknown.whatever-v1":                      FamilyGeneric,
	}
	for modelID, want := range cases {
		require.Equal(t, want, SelectChatAdapter(modelID), modelID)
	}
}

func TestSelectChatAdapter_ImportedModelTakesPrecedence(t *testing.T) {
	require.Equal(t, FamilyGeneric, SelectChatAdapter("anthropic.claude-imported-model-v1"))
}

func TestSelectEmbeddingsAdapter(t *testing.T) {
	f, err := SelectEmbeddingsAdapter("cohere.embed-english-v3")
	require.NoError(t, err)
	require.Equal(t, FamilyCohereEmbed, f)

	f, err = SelectEmbeddingsAdapter("amazon.titan-embed-image-v1")
	require.NoError(t, err)
	require.Equal(t, FamilyTitanEmbed, f)

	_, err = SelectEmbeddingsAdapter("anthropic.claude-v2")
	require.Error(t, err)
	require.True(t, gatewayerrors.Is(err, gatewayerrors.KindUnsupportedModel))
}
