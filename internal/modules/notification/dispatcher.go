package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
)

const operatorTimeout = 5 * time.Second

// Dispatcher delivers keys to the buyer and alerts the operator.
// Only a buyer-side failure is returned; operator-side failures are logged.
type Dispatcher struct {
	telegram    *TelegramNotifier
	mailer      Mailer
	events      EventPublisher
	adminChatID int64
	logger      *log.Logger
}

// NewDispatcher wires the channels. telegram and events may be nil.
func NewDispatcher(telegram *TelegramNotifier, mailer Mailer, events EventPublisher, adminChatID int64, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		telegram:    telegram,
		mailer:      mailer,
		events:      events,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, o *order.Order) error {
	buyerErr := d.notifyBuyer(ctx, o)

	// The buyer send may have used up ctx; the operator alert matters most then.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), operatorTimeout)
	defer cancel()
	d.notifyOperator(opCtx, o, buyerErr)
	if buyerErr != nil {
		return fmt.Errorf("%w: order %s: %w", ErrDelivery, o.ID, buyerErr)
	}
	return nil
}

func (d *Dispatcher) notifyBuyer(ctx context.Context, o *order.Order) error {
	text := BuyerMessage(o)

	chatNative := o.PaymentMethod == order.PaymentTelegram && o.TelegramUserID != 0
	switch {
	case chatNative && d.telegram != nil:
		return d.telegram.SendText(ctx, o.TelegramUserID, text)
	case o.Email != "" && d.mailer != nil:
		return d.mailer.Send(ctx, o.Email, "Your order "+o.Number, text)
	case o.TelegramUserID != 0 && d.telegram != nil:
		return d.telegram.SendText(ctx, o.TelegramUserID, text)
	default:
		return ErrNoChannel
	}
}

func (d *Dispatcher) notifyOperator(ctx context.Context, o *order.Order, buyerErr error) {
	if d.telegram != nil && d.adminChatID != 0 {
		text := AdminMessage(o)
		if buyerErr != nil {
			text += "\n\nDELIVERY FAILED, re-send keys manually: " + buyerErr.Error()
		}
		if err := d.telegram.SendText(ctx, d.adminChatID, text); err != nil {
			d.logger.Printf("order %s: operator alert failed: %v", o.ID, err)
		}
	}
	if d.events != nil {
		if err := d.events.PublishOrderCompleted(ctx, o); err != nil {
			d.logger.Printf("order %s: publish %s failed: %v", o.ID, EventOrderCompleted, err)
		}
	}
}
