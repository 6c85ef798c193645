package llama

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
)

func strPtr(s string) chat.Content {
	return chat.Content{IsString: true, Text: s}
}

func TestCreateLlama3Prompt_SimpleChat(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: strPtr("You are a helpful assistant.")},
		{Role: chat.RoleUser, Content: strPtr("Hello!")},
	}

	prompt, err := createLlama3Prompt(messages)
	require.NoError(t, err)
	require.Equal(t,
		"<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\nYou are a helpful assistant.<|eot_id|>"+
			"<|start_header_id|>user<|end_header_id|>\n\nHello!<|eot_id|>"+
			"<|start_header_id|>assistant<|end_header_id|>\n\n",
		prompt,
	)
}

func TestCreateLlama2Prompt_MultiTurn(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: strPtr("Be concise.")},
		{Role: chat.RoleUser, Content: strPtr("Hi")},
		{Role: chat.RoleAssistant, Content: strPtr("Hello there")},
		{Role: chat.RoleUser, Content: strPtr("How are you?")},
	}

	prompt, err := createLlama2Prompt(messages)
	require.NoError(t, err)
	require.Equal(t,
		"<s>[INST] <<SYS>>\nBe concise.\n<</SYS>>Hi [/INST] Hello there</s><s>[INST] How are you? [/INST] ",
		prompt,
	)
}

func TestCreateLlama2Prompt_ToolRoleRejected(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleTool, Content: strPtr("result")},
	}
	_, err := createLlama2Prompt(messages)
	require.Error(t, err)
}

func TestCreateLlama3Prompt_NonStringContentRejected(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleUser, Content: chat.Content{Parts: []chat.ContentPart{
			chat.TextContent{Text: "a"},
			chat.TextContent{Text: "b"},
		}}},
	}
	_, err := createLlama3Prompt(messages)
	require.Error(t, err)
}
