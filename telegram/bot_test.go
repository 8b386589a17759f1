package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBot_SendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7}}`))
	}))
	defer srv.Close()

	bot := NewBot(srv.URL, "TOKEN", time.Second)
	require.NoError(t, bot.SendMessage(context.Background(), "42", "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestBot_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := NewBot(srv.URL, "TOKEN", time.Second).SendMessage(context.Background(), "1", "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Contains(t, apiErr.Description, "chat not found")
}

func TestBot_CreateInvoiceLink(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/createInvoiceLink", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":"https://t.me/$abc"}`))
	}))
	defer srv.Close()

	link, err := NewBot(srv.URL, "TOKEN", time.Second).CreateInvoiceLink(context.Background(), Invoice{
		Title:   "Order #5",
		Payload: "order_5",
		Prices:  []LabeledPrice{{Label: "Total", Amount: 201}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/$abc", link)
	assert.Equal(t, "XTR", got["currency"])
	assert.Equal(t, "", got["provider_token"])
}

func TestBot_NoToken(t *testing.T) {
	err := NewBot("http://127.0.0.1:1", "", time.Second).SendMessage(context.Background(), "1", "x")
	assert.ErrorIs(t, err, ErrNoToken)
}
