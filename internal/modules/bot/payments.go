package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/cardshop-backend/internal/modules/inventory"
	"github.com/georgemunganga/cardshop-backend/internal/modules/notification"
	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
)

// handlePreCheckout approves the payment only while a key is in stock.
func (b *Bot) handlePreCheckout(ctx context.Context, q *tgbotapi.PreCheckoutQuery) {
	answer := tgbotapi.PreCheckoutConfig{PreCheckoutQueryID: q.ID, OK: true}

	productID := q.InvoicePayload
	if _, err := b.catalog.GetProduct(ctx, productID); err != nil {
		answer.OK = false
		answer.ErrorMessage = "This product is no longer available."
	} else if avail, err := b.inventory.CheckAvailable(ctx, productID, 1); err != nil || !avail.Available {
		answer.OK = false
		answer.ErrorMessage = "Sorry, this product is out of stock right now."
	}

	if _, err := b.api.Request(answer); err != nil {
		b.logger.Printf("bot: answer pre-checkout %s failed: %v", q.ID, err)
	}
}

// handlePayment turns a successful Telegram payment into a one-unit order.
// Key delivery goes through the order's notifier; the bot only steps in when
// that delivery degraded.
func (b *Bot) handlePayment(ctx context.Context, msg *tgbotapi.Message) {
	p := msg.SuccessfulPayment
	req := order.PlaceOrderRequest{
		Cart:            []order.CartLine{{ID: p.InvoicePayload, Quantity: 1}},
		TotalAmount:     decimal.New(int64(p.TotalAmount), -2),
		PaymentMethod:   order.PaymentTelegram,
		PaymentChargeID: p.TelegramPaymentChargeID,
	}
	if msg.From != nil {
		req.TelegramUserID = msg.From.ID
		req.TelegramUsername = msg.From.UserName
	}
	if req.TelegramUserID == 0 {
		req.TelegramUserID = msg.Chat.ID
	}

	res, err := b.orders.PlaceOrder(ctx, req)
	if err != nil {
		b.logger.Printf("bot: paid order for %s by %d failed (charge %s): %v",
			p.InvoicePayload, req.TelegramUserID, p.TelegramPaymentChargeID, err)
		b.reply(msg.Chat.ID, "Payment received, but we could not issue your key automatically. "+
			"Support has been notified and will contact you shortly.")
		if b.adminID != 0 {
			b.reply(b.adminID, fmt.Sprintf("Paid order could not be fulfilled\nProduct: %s\nBuyer: %d\nCharge: %s\nReason: %s",
				p.InvoicePayload, req.TelegramUserID, p.TelegramPaymentChargeID, reason(err)))
		}
		return
	}

	if res.Replayed {
		// Telegram redelivered the payment; resend the keys of the order it already paid for.
		b.logger.Printf("bot: charge %s replayed, order %s already issued", p.TelegramPaymentChargeID, res.Order.ID)
		b.reply(msg.Chat.ID, notification.BuyerMessage(res.Order))
		return
	}
	if res.Delivery == order.DeliveryDegraded {
		b.reply(msg.Chat.ID, notification.BuyerMessage(res.Order))
	}
}

func reason(err error) string {
	var shortage *inventory.ShortageError
	if errors.As(err, &shortage) {
		return fmt.Sprintf("no keys left for %s", shortage.ProductID)
	}
	return err.Error()
}
