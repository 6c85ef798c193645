package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContent_NullRoundTrip(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte("null"), &c))
	require.True(t, c.IsNull())
	require.True(t, c.IsEmpty())

	out, err := json.Marshal(c)
	require.NoError(t, err)
	require.Equal(t, "null", string(out))
}

func TestContent_EmptyStringIsNotNull(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`""`), &c))
	require.False(t, c.IsNull())
	require.True(t, c.IsEmpty())

	out, err := json.Marshal(c)
	require.NoError(t, err)
	require.Equal(t, `""`, string(out))
}

func TestContent_NonEmptyStringIsNeitherNullNorEmpty(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`"hi"`), &c))
	require.False(t, c.IsNull())
	require.False(t, c.IsEmpty())
}

func TestNullContent_MarshalsToLiteralNull(t *testing.T) {
	out, err := json.Marshal(NullContent())
	require.NoError(t, err)
	require.Equal(t, "null", string(out))
}

func TestCoerceTokenCount(t *testing.T) {
	require.Equal(t, 0, CoerceTokenCount(nil))
	require.Equal(t, 5, CoerceTokenCount(float64(5)))
	require.Equal(t, 7, CoerceTokenCount("7"))
	require.Equal(t, 0, CoerceTokenCount("not-a-number"))
}
