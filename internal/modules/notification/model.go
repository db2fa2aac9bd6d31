package notification

import (
	"errors"
	"time"

	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
)

var (
	ErrDelivery  = errors.New("delivery failed")
	ErrNoChannel = errors.New("order has no reachable contact")
)

// EventOrderCompleted is the event type published for every persisted order.
const EventOrderCompleted = "order.completed"

// OrderEvent is the operator-side event. It never carries the keys themselves.
type OrderEvent struct {
	Type           string       `json:"type"`
	OrderID        string       `json:"order_id"`
	Number         string       `json:"number"`
	Email          string       `json:"email,omitempty"`
	TelegramUserID int64        `json:"telegram_user_id,omitempty"`
	Items          []order.Item `json:"items"`
	Total          int64        `json:"total"`
	TotalMismatch  bool         `json:"total_mismatch,omitempty"`
	Currency       string       `json:"currency"`
	PaymentMethod  string       `json:"payment_method"`
	Timestamp      time.Time    `json:"timestamp"`
}

func newOrderEvent(o *order.Order) *OrderEvent {
	return &OrderEvent{
		Type:           EventOrderCompleted,
		OrderID:        o.ID,
		Number:         o.Number,
		Email:          o.Email,
		TelegramUserID: o.TelegramUserID,
		Items:          o.Items,
		Total:          o.Total,
		TotalMismatch:  o.TotalMismatch,
		Currency:       o.Currency,
		PaymentMethod:  string(o.PaymentMethod),
		Timestamp:      o.CreatedAt,
	}
}
