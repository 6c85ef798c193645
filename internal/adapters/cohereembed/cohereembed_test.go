package cohereembed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/embed"
)

func TestResolveTexts_PreTokenizedInput(t *testing.T) {
	in := embed.Input{
		Kind:       embed.InputTokenList,
		TokenLists: [][]int64{{15339, 1917}},
	}

	texts, err := resolveTexts(in)
	require.NoError(t, err)
	require.Equal(t, []string{"hello world"}, texts)
}

func TestResolveTexts_StringListPassthrough(t *testing.T) {
	in := embed.Input{Kind: embed.InputStringList, Strings: []string{"a", "b"}}
	texts, err := resolveTexts(in)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, texts)
}
