package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender is the part of *tgbotapi.BotAPI used for delivery.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends plain-text messages with a bounded retry.
type TelegramNotifier struct {
	bot      TelegramSender
	maxTries uint
	interval time.Duration
}

func NewTelegramNotifier(bot TelegramSender) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, maxTries: 3, interval: 500 * time.Millisecond}
}

func (n *TelegramNotifier) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	_, err := backoff.Retry(ctx, func() (tgbotapi.Message, error) {
		return n.bot.Send(msg)
	}, backoff.WithBackOff(exponential(n.interval)), backoff.WithMaxTries(n.maxTries))
	if err != nil {
		return fmt.Errorf("telegram chat %d: %w", chatID, err)
	}
	return nil
}

func exponential(initial time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	return b
}
