package claude

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
)

func TestMapFinishReason_PassesRawStopReasonThrough(t *testing.T) {
	require.Equal(t, chat.FinishReason("end_turn"), mapFinishReason("end_turn"))
	require.Equal(t, chat.FinishReason("max_tokens"), mapFinishReason("max_tokens"))
	require.Equal(t, chat.FinishReason("stop_sequence"), mapFinishReason("stop_sequence"))
}

func TestMapFinishReason_ToolUseBecomesToolCalls(t *testing.T) {
	require.Equal(t, chat.FinishToolCalls, mapFinishReason("tool_use"))
}
