package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/config"
	"pickupwatch/pkg/logger"
)

// TelegramNotifier mirrors the stock alert to a Telegram chat.
type TelegramNotifier struct {
	api         *tgbotapi.BotAPI
	chatID      int64
	purchaseURL string
}

// NewTelegramNotifier authorizes the bot (one getMe call) and returns a
// notifier bound to the configured chat.
func NewTelegramNotifier(cfg *config.TelegramConfig, purchaseURL string) (*TelegramNotifier, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("%w: telegram disabled", ErrNotConfigured)
	}
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("%w: telegram bot token or chat ID missing", ErrNotConfigured)
	}
	chatID, err := cfg.ChatIDInt()
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat ID %q: %w", cfg.ChatID, err)
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", api.Self.UserName))
	return &TelegramNotifier{api: api, chatID: chatID, purchaseURL: purchaseURL}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Notify(ctx context.Context, sel apple.Selection, stores []apple.StoreAvailability) error {
	msg := tgbotapi.NewMessage(t.chatID, telegramText(sel, stores, t.purchaseURL))
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	logger.FromContext(ctx).Info("Telegram message sent", zap.Int64("chat_id", t.chatID))
	return nil
}

func telegramText(sel apple.Selection, stores []apple.StoreAvailability, purchaseURL string) string {
	var b strings.Builder
	b.WriteString(StockMessage(sel, purchaseURL))
	for _, s := range stores {
		name := s.StoreName
		if name == "" {
			name = s.StoreNumber
		}
		fmt.Fprintf(&b, "\n• %s", name)
		if s.ReservationURL != "" {
			fmt.Fprintf(&b, " %s", s.ReservationURL)
		}
	}
	return b.String()
}
