package generic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
)

func TestCreatePrompt(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: chat.Content{IsString: true, Text: "Be helpful"}},
		{Role: chat.RoleUser, Content: chat.Content{IsString: true, Text: "Hi"}},
	}
	prompt, err := createPrompt(messages)
	require.NoError(t, err)
	require.Equal(t, "<|system|>Be helpful</s><|user|>Hi</s><|assistant|>", prompt)
}
