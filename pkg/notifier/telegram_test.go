package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickupwatch/pkg/config"
)

type fakeTelegram struct {
	mu    sync.Mutex
	texts []string
	chats []string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 1, "is_bot": true, "first_name": "pickup", "username": "pickup_bot"},
		})
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.texts = append(f.texts, r.FormValue("text"))
		f.chats = append(f.chats, r.FormValue("chat_id"))
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 404, "description": "Not Found"})
	}
}

func TestTelegramNotifier(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := &config.TelegramConfig{
		Enabled:     true,
		BotToken:    "123:abc",
		ChatID:      "42",
		APIEndpoint: srv.URL + "/bot%s/%s",
		Timeout:     5 * time.Second,
	}
	n, err := NewTelegramNotifier(cfg, config.DefaultPurchaseURL)
	require.NoError(t, err)
	assert.Equal(t, "telegram", n.Name())

	require.NoError(t, n.Notify(context.Background(), testSelection(), testStores()))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.texts, 1)
	assert.Equal(t, "42", fake.chats[0])
	assert.Contains(t, fake.texts[0], "256GB jetBlack iphone 7 plus from verizon")
	assert.Contains(t, fake.texts[0], "Fifth Avenue http://reserve/R095")
}

func TestTelegramNotifierNotConfigured(t *testing.T) {
	_, err := NewTelegramNotifier(&config.TelegramConfig{Enabled: false}, "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewTelegramNotifier(&config.TelegramConfig{Enabled: true, ChatID: "1"}, "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewTelegramNotifier(&config.TelegramConfig{Enabled: true, BotToken: "t", ChatID: "me"}, "")
	assert.Error(t, err)
}
