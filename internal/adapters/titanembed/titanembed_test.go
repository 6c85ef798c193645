package titanembed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/embed"
)

func TestResolveInputText_SingleString(t *testing.T) {
	text, err := resolveInputText(embed.Input{Kind: embed.InputString, Strings: []string{"hello"}})
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

func TestResolveInputText_RejectsMultipleStrings(t *testing.T) {
	_, err := resolveInputText(embed.Input{Kind: embed.InputStringList, Strings: []string{"a", "b"}})
	require.Error(t, err)
}

func TestResolveInputText_RejectsTokenizedInput(t *testing.T) {
	_, err := resolveInputText(embed.Input{Kind: embed.InputTokenList, TokenLists: [][]int64{{1, 2}}})
	require.Error(t, err)
}

func TestEmbedRequestBody_DefaultsOnlyForImageModelWhenUnset(t *testing.T) {
	body := buildRequestBody(&embed.Request{Model: "amazon.titan-embed-image-v1"}, "hello")
	require.Equal(t, map[string]int{"outputEmbeddingLength": 1024}, body.EmbeddingConfig)

	body = buildRequestBody(&embed.Request{Model: "amazon.titan-embed-text-v1"}, "hello")
	require.Nil(t, body.EmbeddingConfig)
}

func TestEmbedRequestBody_HonorsClientSuppliedConfig(t *testing.T) {
	clientConfig := map[string]int{"outputEmbeddingLength": 256}
	body := buildRequestBody(&embed.Request{Model: "amazon.titan-embed-image-v1", EmbeddingConfig: clientConfig}, "hello")
	require.Equal(t, clientConfig, body.EmbeddingConfig)
}
