package claude

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToolState_NPath_SkipsThreeTokensAndStripsLeadingNewline(t *testing.T) {
	state := newToolState()

	var emitted []string
	var swallows []bool

	feed := func(text string) {
		e, s := state.handleContentBlockDelta(text)
		emitted = append(emitted, e)
		swallows = append(swallows, s)
	}

	feed("N")
	feed("</tool>")
	feed("\n")
	feed("\nHello")
	feed(" world")

	require.Equal(t, []bool{true, true, true, false, false}, swallows)
	require.Equal(t, "Hello", emitted[3])
	require.Equal(t, " world", emitted[4])
}

func TestToolState_YPath_BuffersEverythingUntilMessageDelta(t *testing.T) {
	state := newToolState()

	for _, tok := range []string{"Y", "</tool><function>", `{"name": "get_weather",`, ` "arguments": {"x": 1}}`, "</function>"} {
		_, swallow := state.handleContentBlockDelta(tok)
		require.True(t, swallow, "token %q should be swallowed on the Y path", tok)
	}

	require.Equal(t, `Y</tool><function>{"name": "get_weather", "arguments": {"x": 1}}</function>`, state.toolMessage)
}

func TestParseToolMessage_UsesLastFunctionTag(t *testing.T) {
	msg := `Y</tool>preamble mentioning <function> in passing<function>{"name": "f", "arguments": {"x": 1}}</function>`
	tc, err := parseToolMessage(msg)
	require.NoError(t, err)
	require.Equal(t, "f", tc.Function.Name)
	require.JSONEq(t, `{"x": 1}`, tc.Function.Arguments)
	require.Equal(t, "function", tc.Type)
	require.Contains(t, tc.ID, "call_")
}
