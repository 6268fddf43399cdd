package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkhanna/amulwatch/internal/notify"
)

func TestTelegramNotifier_Send(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := notify.NewTelegramNotifier("bot-token", "chat-42", notify.WithTelegramAPIBase(srv.URL))
	err := n.Send(context.Background(), notify.Alert{Subject: "Stock alert", Body: "back in stock"})
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "chat-42", gotPayload["chat_id"])
	assert.Equal(t, "*Stock alert*\nback in stock", gotPayload["text"])
	assert.Equal(t, "Markdown", gotPayload["parse_mode"])
}

func TestTelegramNotifier_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"description":"bot was blocked"}`))
	}))
	defer srv.Close()

	n := notify.NewTelegramNotifier("bot-token", "chat-42", notify.WithTelegramAPIBase(srv.URL))
	err := n.Send(context.Background(), notify.Alert{Subject: "x", Body: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "bot was blocked")
}

func TestTelegramNotifier_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "telegram", notify.NewTelegramNotifier("t", "c").Name())
}
