package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOrder = errors.New("invalid order")
	ErrPersistence  = errors.New("order could not be saved")

	// ErrDuplicateNumber is returned by Repository.Append when the order
	// number is already taken. The engine draws a new number and retries.
	ErrDuplicateNumber = errors.New("order number already used")
)

// Status of a ledger record. Only completed orders are ever written.
type Status string

const StatusCompleted Status = "completed"

// PaymentMethod is the channel the buyer paid through.
type PaymentMethod string

const (
	PaymentTelegram PaymentMethod = "telegram"
	PaymentCard     PaymentMethod = "card"
	PaymentSBP      PaymentMethod = "sbp"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentTelegram, PaymentCard, PaymentSBP:
		return true
	}
	return false
}

// Delivery reports whether the buyer notification went out.
type Delivery string

const (
	DeliveryDelivered Delivery = "delivered"
	DeliveryDegraded  Delivery = "degraded"
)

// Item is a line item with the catalog price captured at purchase time.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Key is one dispensed code. Keys follow item order, then dequeue order.
type Key struct {
	Product string `json:"product"`
	Key     string `json:"key"`
}

// Order is an immutable ledger record. len(Keys) always equals the unit count of Items.
type Order struct {
	ID               string          `json:"id"`
	Number           string          `json:"number"`
	Email            string          `json:"email,omitempty"`
	TelegramUserID   int64           `json:"telegram_user_id,omitempty"`
	TelegramUsername string          `json:"telegram_username,omitempty"`
	Items            []Item          `json:"items"`
	Keys             []Key           `json:"keys"`
	Total            int64           `json:"total"`
	DeclaredTotal    decimal.Decimal `json:"declared_total"`
	TotalMismatch    bool            `json:"total_mismatch,omitempty"`
	Currency         string          `json:"currency"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	PaymentChargeID  string          `json:"payment_charge_id,omitempty"`
	Status           Status          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Units is the number of keys the order must carry.
func (o *Order) Units() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// CartLine is what the client asks for; nothing in it is trusted beyond id and quantity.
type CartLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// PlaceOrderRequest is the checkout payload from the mini-app or the bot.
type PlaceOrderRequest struct {
	Email            string          `json:"email"`
	Cart             []CartLine      `json:"cart"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod"`
	TelegramUserID   int64           `json:"telegramUserId,omitempty"`
	TelegramUsername string          `json:"telegramUsername,omitempty"`
	PaymentChargeID  string          `json:"paymentChargeId,omitempty"`
}

// Result is returned for every persisted order, delivered or not.
type Result struct {
	Order       *Order
	Delivery    Delivery
	DeliveryErr error
	// Replayed marks a payment charge that already had an order; Order is
	// that earlier order and nothing was taken or sent.
	Replayed bool
}

// Stats backs the operator dashboard.
type Stats struct {
	TotalOrders int      `json:"total_orders"`
	Revenue     int64    `json:"revenue"`
	OrdersToday int      `json:"orders_today"`
	Recent      []*Order `json:"recent"`
}
