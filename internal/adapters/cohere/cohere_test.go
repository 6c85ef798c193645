package cohere

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
)

func textMsg(role chat.Role, text string) chat.Message {
	return chat.Message{Role: role, Content: chat.Content{IsString: true, Text: text}}
}

func TestComposeBody_HistoryAndLastMessage(t *testing.T) {
	req := &chat.Request{
		Model: "cohere.command-r-v1:0",
		Messages: []chat.Message{
			textMsg(chat.RoleUser, "hi"),
			textMsg(chat.RoleAssistant, "hello there"),
			textMsg(chat.RoleUser, "how are you"),
		},
	}

	raw, err := (&Adapter{}).composeBody(req)
	require.NoError(t, err)

	var body requestBody
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "how are you", body.Message)
	require.Equal(t, []historyEntry{
		{Role: "USER", Message: "hi"},
		{Role: "CHATBOT", Message: "hello there"},
	}, body.ChatHistory)
}

func TestComposeBody_RejectsNonUserLastMessage(t *testing.T) {
	req := &chat.Request{
		Model: "cohere.command-r-v1:0",
		Messages: []chat.Message{
			textMsg(chat.RoleUser, "hi"),
			textMsg(chat.RoleAssistant, "hello there"),
		},
	}
	_, err := (&Adapter{}).composeBody(req)
	require.Error(t, err)
}

func TestComposeBody_RejectsToolRoleInHistory(t *testing.T) {
	req := &chat.Request{
		Model: "cohere.command-r-v1:0",
		Messages: []chat.Message{
			textMsg(chat.RoleTool, "result"),
			textMsg(chat.RoleUser, "ok"),
		},
	}
	_, err := (&Adapter{}).composeBody(req)
	require.Error(t, err)
}
