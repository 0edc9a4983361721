package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessagePostsPayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot-token", "-100123", server.Client(), nil, nil)

	err := client.SendMessage(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "-100123", gotBody["chat_id"])
	assert.Equal(t, "hello", gotBody["text"])
	assert.Equal(t, "MarkdownV2", gotBody["parse_mode"])
}

func TestSendMessageNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities: Character '.' is reserved and must be escaped at byte offset 6"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot-token", "-100123", server.Client(), nil, nil)

	err := client.SendMessage(context.Background(), "hello a.b unescaped")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestOffsetPattern(t *testing.T) {
	match := offsetPattern.FindStringSubmatch("Character '.' is reserved and must be escaped at byte offset 42")
	require.NotNil(t, match)
	assert.Equal(t, "42", match[1])

	assert.Nil(t, offsetPattern.FindStringSubmatch("some other error"))
}
