package claude

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
)

func str(s string) chat.Content {
	return chat.Content{IsString: true, Text: s}
}

func TestComposeBody_SystemAndMessages(t *testing.T) {
	req := &chat.Request{
		Model: "anthropic.claude-3-sonnet-20240229-v1:0",
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: str("Be terse.")},
			{Role: chat.RoleUser, Content: str("Hi")},
		},
	}

	raw, err := (&Adapter{}).composeBody(context.Background(), req)
	require.NoError(t, err)

	var body requestBody
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "bedrock-2023-05-31", body.AnthropicVersion)
	require.Equal(t, "Be terse.\n", body.System)
	require.Len(t, body.Messages, 1)
	require.Equal(t, "user", body.Messages[0].Role)
	require.Equal(t, "Hi", body.Messages[0].Content)
}

func TestComposeBody_ToolCallRewriteAndResultRewrite(t *testing.T) {
	req := &chat.Request{
		Model: "anthropic.claude-3-sonnet-20240229-v1:0",
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: str("what's the weather")},
			{
				Role:    chat.RoleAssistant,
				Content: chat.NullContent(),
				ToolCalls: []chat.ToolCall{{
					ID:   "call_abc",
					Type: "function",
					Function: chat.ToolCallFunction{
						Name:      "get_weather",
						Arguments: `{"city": "nyc"}`,
					},
				}},
			},
			{Role: chat.RoleTool, ToolCallID: "call_abc", Content: str("72F and sunny")},
		},
		Tools: []chat.Tool{{
			Type: "function",
			Function: chat.ToolFunction{
				Name:        "get_weather",
				Description: "gets the weather",
			},
		}},
	}

	raw, err := (&Adapter{}).composeBody(context.Background(), req)
	require.NoError(t, err)

	var body requestBody
	require.NoError(t, json.Unmarshal(raw, &body))

	require.Contains(t, body.System, "You have access to the following tools:")
	require.Equal(t, []string{"</function>"}, body.StopSequences)

	require.Equal(t, "user", body.Messages[0].Role)
	require.Equal(t, "what's the weather", body.Messages[0].Content)

	require.Equal(t, "assistant", body.Messages[1].Role)
	require.Contains(t, body.Messages[1].Content, "[Tool use for `get_weather` with id `call_abc` with the following `input`]")
	require.Contains(t, body.Messages[1].Content, `{"city": "nyc"}`)

	// tool-result rewrite becomes a user-role message, and gets merged with
	// the trailing "<tool>" priming message only if same role+string; here
	// it should remain its own entry since "<tool>" is assistant-role.
	require.Equal(t, "user", body.Messages[2].Role)
	require.Contains(t, body.Messages[2].Content, "[Tool result with matching id `call_abc` of `72F and sunny`]")

	last := body.Messages[len(body.Messages)-1]
	require.Equal(t, "assistant", last.Role)
	require.Equal(t, "<tool>", last.Content)
}

func TestMergeMessages_FoldsConsecutiveSameRoleStrings(t *testing.T) {
	merged := mergeMessages([]rawMessage{
		{Role: "user", Content: "hello"},
		{Role: "user", Content: "hello"},
		{Role: "user", Content: "again"},
		{Role: "assistant", Content: "hi"},
	})

	require.Len(t, merged, 2)
	require.Equal(t, "user", merged[0].Role)
	require.Equal(t, "hello\nagain", merged[0].Content)
	require.Equal(t, "assistant", merged[1].Role)
	require.Equal(t, "hi", merged[1].Content)
}

func TestMergeMessages_ListContentNeverMerges(t *testing.T) {
	listContent := []map[string]any{{"type": "text", "text": "a"}}
	merged := mergeMessages([]rawMessage{
		{Role: "user", Content: "hello"},
		{Role: "user", Content: listContent},
	})

	require.Len(t, merged, 2)
	require.Equal(t, "hello", merged[0].Content)
	require.Equal(t, listContent, merged[1].Content)
}
