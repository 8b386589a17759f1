// Package notify delivers best-effort chat messages about orders.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Notifier sends a message to a Telegram chat. Implementations never
// report delivery failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, chatID, text string)
}

// Sender is the subset of the Bot API client used here.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

type TelegramNotifier struct {
	sender  Sender
	timeout time.Duration
	log     *zap.Logger
}

func NewTelegramNotifier(sender Sender, timeout time.Duration, log *zap.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TelegramNotifier{sender: sender, timeout: timeout, log: log.Named("notify")}
}

// Notify sends synchronously but bounded by the notifier timeout. The
// request context's cancellation is dropped so a client disconnect does not
// abort the message.
func (n *TelegramNotifier) Notify(ctx context.Context, chatID, text string) {
	if chatID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := n.sender.SendMessage(ctx, chatID, text); err != nil {
		n.log.Warn("telegram message not delivered", zap.String("chat_id", chatID), zap.Error(err))
		return
	}
	n.log.Debug("telegram message sent", zap.String("chat_id", chatID))
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) {}
