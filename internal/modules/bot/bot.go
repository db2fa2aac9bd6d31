// Package bot is the Telegram front end: it answers payment queries, turns
// successful payments into orders and serves single-message operator commands.
package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/georgemunganga/cardshop-backend/internal/modules/audit"
	"github.com/georgemunganga/cardshop-backend/internal/modules/catalog"
	"github.com/georgemunganga/cardshop-backend/internal/modules/inventory"
	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
)

// API is the part of *tgbotapi.BotAPI the bot needs.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api       API
	orders    order.Service
	catalog   catalog.Service
	inventory inventory.Service
	audit     audit.Service
	adminID   int64
	logger    *log.Logger
}

func New(api API, orders order.Service, catalogService catalog.Service, inventoryService inventory.Service,
	auditService audit.Service, adminID int64, logger *log.Logger) *Bot {
	return &Bot{
		api:       api,
		orders:    orders,
		catalog:   catalogService,
		inventory: inventoryService,
		audit:     auditService,
		adminID:   adminID,
		logger:    logger,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Println("Telegram bot polling for updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate routes one update. Panics are contained so one bad update
// cannot stop the polling loop.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("bot: panic handling update %d: %v", update.UpdateID, r)
		}
	}()

	switch {
	case update.PreCheckoutQuery != nil:
		b.handlePreCheckout(ctx, update.PreCheckoutQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		b.handlePayment(ctx, update.Message)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Printf("bot: send to %d failed: %v", chatID, err)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.adminID != 0 && userID == b.adminID
}
