package order

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/georgemunganga/cardshop-backend/internal/platform/filestore"
)

type jsonRepo struct {
	mu     sync.RWMutex
	doc    *filestore.Document
	orders []*Order
}

// NewJSONRepository loads orders.json from dataDir.
func NewJSONRepository(dataDir string) (Repository, error) {
	doc, err := filestore.Open(dataDir, "orders.json")
	if err != nil {
		return nil, err
	}
	r := &jsonRepo{doc: doc}
	if err := doc.Load(&r.orders); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *jsonRepo) Append(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orders {
		if existing.Number == o.Number {
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, o.Number)
		}
	}

	next := make([]*Order, 0, len(r.orders)+1)
	next = append(append(next, r.orders...), cloneOrder(o))
	if err := r.doc.Save(next); err != nil {
		return err
	}
	r.orders = next
	return nil
}

func (r *jsonRepo) FindByContact(ctx context.Context, email string) ([]*Order, error) {
	email = strings.TrimSpace(email)
	return r.filter(func(o *Order) bool { return o.Email != "" && strings.EqualFold(o.Email, email) }), nil
}

func (r *jsonRepo) FindByTelegramUser(ctx context.Context, userID int64) ([]*Order, error) {
	return r.filter(func(o *Order) bool { return o.TelegramUserID == userID }), nil
}

func (r *jsonRepo) FindByPaymentCharge(ctx context.Context, chargeID string) (*Order, error) {
	if chargeID == "" {
		return nil, nil
	}
	found := r.filter(func(o *Order) bool { return o.PaymentChargeID == chargeID })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *jsonRepo) List(ctx context.Context) ([]*Order, error) {
	return r.filter(func(*Order) bool { return true }), nil
}

func (r *jsonRepo) filter(match func(*Order) bool) []*Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Order{}
	for _, o := range r.orders {
		if match(o) {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

func cloneOrder(o *Order) *Order {
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	c.Keys = append([]Key(nil), o.Keys...)
	return &c
}
