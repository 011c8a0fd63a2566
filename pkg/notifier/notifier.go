package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/logger"
)

var ErrNotConfigured = errors.New("notifier not configured")

// Notifier reports stores that have the selection in stock.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, sel apple.Selection, stores []apple.StoreAvailability) error
}

// StockMessage is the alert text shared by SMS and Telegram.
func StockMessage(sel apple.Selection, purchaseURL string) string {
	return fmt.Sprintf("A %dGB %s %s from %s is available 🎉 🎉 🎉 ==> %s",
		sel.Capacity, sel.Color, sel.Model.DisplayName(), sel.CarrierName(), purchaseURL)
}

// ConsoleNotifier prints the matching stores instead of messaging anyone.
type ConsoleNotifier struct {
	out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{out: out}
}

func (c *ConsoleNotifier) Name() string { return "console" }

func (c *ConsoleNotifier) Notify(ctx context.Context, sel apple.Selection, stores []apple.StoreAvailability) error {
	data, err := json.MarshalIndent(stores, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stores: %w", err)
	}
	_, err = fmt.Fprintf(c.out, "✔︎ %s\n%s\n", sel, data)
	return err
}

// SMSNotifier sends exactly one text per call.
type SMSNotifier struct {
	client      *TwilioClient
	from        string
	to          string
	purchaseURL string
}

func NewSMSNotifier(client *TwilioClient, from, to, purchaseURL string) *SMSNotifier {
	return &SMSNotifier{client: client, from: from, to: to, purchaseURL: purchaseURL}
}

func (s *SMSNotifier) Name() string { return "sms" }

func (s *SMSNotifier) Notify(ctx context.Context, sel apple.Selection, stores []apple.StoreAvailability) error {
	body := StockMessage(sel, s.purchaseURL)
	msg, err := s.client.SendSMS(ctx, s.from, s.to, body)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	logger.FromContext(ctx).Info("SMS sent",
		zap.Stringp("sid", msg.Sid),
		zap.Stringp("status", msg.Status),
		zap.Int("stores", len(stores)))
	return nil
}

// Chain runs a primary notifier followed by best-effort mirrors. Only the
// primary's error is returned.
type Chain struct {
	primary  Notifier
	mirrors  []Notifier
	onResult func(channel string, err error)
}

func NewChain(primary Notifier, mirrors ...Notifier) *Chain {
	return &Chain{primary: primary, mirrors: mirrors}
}

// OnResult registers a callback invoked after every channel attempt.
func (c *Chain) OnResult(fn func(channel string, err error)) {
	c.onResult = fn
}

func (c *Chain) Name() string {
	names := []string{c.primary.Name()}
	for _, m := range c.mirrors {
		names = append(names, m.Name())
	}
	return strings.Join(names, "+")
}

func (c *Chain) Notify(ctx context.Context, sel apple.Selection, stores []apple.StoreAvailability) error {
	err := c.primary.Notify(ctx, sel, stores)
	c.report(c.primary.Name(), err)
	if err != nil {
		return err
	}

	for _, m := range c.mirrors {
		mErr := m.Notify(ctx, sel, stores)
		c.report(m.Name(), mErr)
		if mErr != nil {
			logger.FromContext(ctx).Warn("Mirror notification failed",
				zap.String("channel", m.Name()),
				zap.Error(mErr))
		}
	}
	return nil
}

func (c *Chain) report(channel string, err error) {
	if c.onResult != nil {
		c.onResult(channel, err)
	}
}
