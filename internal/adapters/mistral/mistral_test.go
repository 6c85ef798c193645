package mistral

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
)

func str(s string) chat.Content {
	return chat.Content{IsString: true, Text: s}
}

func TestConvertPrompt_SystemConcatenatedDirectly(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: str("Be helpful")},
		{Role: chat.RoleUser, Content: str("Hi")},
	}
	prompt, err := convertPrompt(messages)
	require.NoError(t, err)
	require.Equal(t, "<s>[INST] \nBe helpful\nHi [/INST] ", prompt)
}

func TestConvertPrompt_MultiTurnStartsNewInstBlock(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleUser, Content: str("Hi")},
		{Role: chat.RoleAssistant, Content: str("Hello")},
		{Role: chat.RoleUser, Content: str("How are you?")},
	}
	prompt, err := convertPrompt(messages)
	require.NoError(t, err)
	require.Equal(t, "<s>[INST] Hi [/INST] Hello</s><s>[INST] How are you? [/INST] ", prompt)
}

func TestConvertPrompt_ToolRoleRejected(t *testing.T) {
	messages := []chat.Message{{Role: chat.RoleTool, Content: str("result")}}
	_, err := convertPrompt(messages)
	require.Error(t, err)
}

func TestMapFinishReason(t *testing.T) {
	require.Equal(t, chat.FinishLength, mapFinishReason("length"))
	require.Equal(t, chat.FinishStop, mapFinishReason("stop"))
}

// The terminal chunk of a Mistral stream carries amazon-bedrock-invocationMetrics
// as a top-level sibling of outputs, the same as every other model family, even
// though outputs[0] itself nests text/stop_reason unlike the other families.
func TestInvocationMetrics_DecodedFromTerminalChunk(t *testing.T) {
	raw := []byte(`{"outputs":[{"text":"","stop_reason":"stop"}],"amazon-bedrock-invocationMetrics":{"inputTokenCount":12,"outputTokenCount":34}}`)

	var metrics struct {
		Metrics *invocationMetrics `json:"amazon-bedrock-invocationMetrics"`
	}
	require.NoError(t, json.Unmarshal(raw, &metrics))
	require.NotNil(t, metrics.Metrics)
	require.Equal(t, 12, metrics.Metrics.InputTokenCount)
	require.Equal(t, 34, metrics.Metrics.OutputTokenCount)
}

func TestInvocationMetrics_AbsentOnNonTerminalChunk(t *testing.T) {
	raw := []byte(`{"outputs":[{"text":"hello","stop_reason":""}]}`)

	var metrics struct {
		Metrics *invocationMetrics `json:"amazon-bedrock-invocationMetrics"`
	}
	require.NoError(t, json.Unmarshal(raw, &metrics))
	require.Nil(t, metrics.Metrics)
}
