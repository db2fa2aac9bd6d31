package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/georgemunganga/cardshop-backend/internal/modules/catalog"
	"github.com/georgemunganga/cardshop-backend/internal/modules/inventory"
)

// Service defines order fulfillment and ledger reads.
type Service interface {
	// PlaceOrder validates the cart, takes one key per unit and appends the order
	// to the ledger. Either every line gets its keys and the order is stored, or
	// no pool is changed and nothing is stored. Notification failures do not fail
	// the call; they are reported as a degraded Result.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Result, error)

	// OrdersByEmail returns a buyer's history, newest first.
	OrdersByEmail(ctx context.Context, email string) ([]*Order, error)

	// OrdersByTelegramUser returns the orders of one Telegram account, newest first.
	OrdersByTelegramUser(ctx context.Context, userID int64) ([]*Order, error)

	// ListOrders returns the whole ledger, newest first.
	ListOrders(ctx context.Context) ([]*Order, error)

	Stats(ctx context.Context) (*Stats, error)
}

// Notifier delivers a persisted order to the buyer and the operator.
type Notifier interface {
	Notify(ctx context.Context, o *Order) error
}

// Options tunes the engine. Zero values fall back to the defaults below.
type Options struct {
	MaxLineQuantity int
	NotifyTimeout   time.Duration
}

const (
	defaultMaxLineQuantity = 50
	defaultNotifyTimeout   = 10 * time.Second
	recentOrders           = 3
	maxNumberTries         = 5
)

type service struct {
	ledger   Repository
	pools    inventory.Repository
	products catalog.Service
	notifier Notifier
	logger   *log.Logger
	opts     Options
	tracer   trace.Tracer
	now      func() time.Time

	// mu spans availability checks, takes and the ledger append so that
	// check-then-take is atomic across concurrent orders.
	mu sync.Mutex
}

// NewService creates the fulfillment engine.
func NewService(ledger Repository, pools inventory.Repository, products catalog.Service, notifier Notifier, logger *log.Logger, opts Options) Service {
	if opts.MaxLineQuantity <= 0 {
		opts.MaxLineQuantity = defaultMaxLineQuantity
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}
	return &service{
		ledger:   ledger,
		pools:    pools,
		products: products,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		tracer:   otel.Tracer("github.com/georgemunganga/cardshop-backend/internal/modules/order"),
		now:      time.Now,
	}
}

// line is a validated cart line resolved against the catalog.
type line struct {
	product  *catalog.Product
	quantity int
}

func (s *service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder")
	defer span.End()

	o, replayed, err := s.fulfil(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if replayed {
		span.SetAttributes(attribute.String("order.id", o.ID), attribute.Bool("order.replayed", true))
		return &Result{Order: o, Delivery: DeliveryDelivered, Replayed: true}, nil
	}
	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.Int("order.units", o.Units()),
		attribute.Int64("order.total", o.Total),
	)

	res := &Result{Order: o, Delivery: DeliveryDelivered}
	if err := s.notify(ctx, o); err != nil {
		res.Delivery = DeliveryDegraded
		res.DeliveryErr = err
		span.AddEvent("notification failed", trace.WithAttributes(attribute.String("error", err.Error())))
		s.logger.Printf("order %s: delivery degraded, keys must be re-sent manually: %v", o.ID, err)
	}
	return res, nil
}

// fulfil runs everything up to and including the ledger append. replayed is
// true when the payment charge already has an order; that order is returned.
func (s *service) fulfil(ctx context.Context, req PlaceOrderRequest) (o *Order, replayed bool, err error) {
	email, err := s.validateRequest(req)
	if err != nil {
		return nil, false, err
	}
	lines, err := s.resolveLines(ctx, mergeCart(req.Cart))
	if err != nil {
		return nil, false, err
	}

	o = &Order{
		ID:               ulid.Make().String(),
		Number:           generateOrderNumber(),
		Email:            email,
		TelegramUserID:   req.TelegramUserID,
		TelegramUsername: strings.TrimPrefix(strings.TrimSpace(req.TelegramUsername), "@"),
		DeclaredTotal:    req.TotalAmount,
		Currency:         lines[0].product.Currency,
		PaymentMethod:    req.PaymentMethod,
		PaymentChargeID:  req.PaymentChargeID,
		Status:           StatusCompleted,
	}
	for _, l := range lines {
		o.Items = append(o.Items, Item{
			ProductID: l.product.ID,
			Name:      l.product.Name,
			Quantity:  l.quantity,
			UnitPrice: l.product.Price,
		})
		o.Total += l.product.Price * int64(l.quantity)
	}
	if !decimal.NewFromInt(o.Total).Equal(req.TotalAmount) {
		o.TotalMismatch = true
		s.logger.Printf("order %s: declared total %s differs from catalog total %d", o.ID, req.TotalAmount.String(), o.Total)
	}

	// Once a key leaves its pool the order must reach the ledger or the key
	// must go back, whatever happens to the caller.
	txCtx := context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.PaymentChargeID != "" {
		prev, err := s.ledger.FindByPaymentCharge(txCtx, req.PaymentChargeID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: look up charge %s: %v", ErrPersistence, req.PaymentChargeID, err)
		}
		if prev != nil {
			s.logger.Printf("charge %s already fulfilled by order %s", req.PaymentChargeID, prev.ID)
			return prev, true, nil
		}
	}

	// ── Check every line before taking any key ─────────────────────────────
	for _, l := range lines {
		avail, err := s.pools.CheckAvailable(txCtx, l.product.ID, l.quantity)
		if err != nil {
			return nil, false, fmt.Errorf("%w: check %s: %v", ErrPersistence, l.product.ID, err)
		}
		if !avail.Available {
			return nil, false, &inventory.ShortageError{ProductID: l.product.ID, Requested: l.quantity, Available: avail.Count}
		}
	}

	// ── Take in cart order, undoing earlier takes on failure ───────────────
	taken := make([][]string, 0, len(lines))
	for _, l := range lines {
		got, err := s.pools.Take(txCtx, l.product.ID, l.quantity)
		if err != nil {
			s.putBack(txCtx, lines, taken)
			if errors.Is(err, inventory.ErrInsufficientInventory) {
				return nil, false, err
			}
			s.logger.Printf("take %d x %s failed: %v", l.quantity, l.product.ID, err)
			return nil, false, fmt.Errorf("%w: take %s: %v", ErrPersistence, l.product.ID, err)
		}
		taken = append(taken, got)
		for _, code := range got {
			o.Keys = append(o.Keys, Key{Product: l.product.ID, Key: code})
		}
	}

	o.CreatedAt = s.now().UTC()
	err = s.ledger.Append(txCtx, o)
	for try := 1; errors.Is(err, ErrDuplicateNumber) && try < maxNumberTries; try++ {
		o.Number = generateOrderNumber()
		err = s.ledger.Append(txCtx, o)
	}
	if err != nil {
		s.logger.Printf("order %s: ledger append failed, returning %d keys to pools: %v", o.ID, len(o.Keys), err)
		s.putBack(txCtx, lines, taken)
		return nil, false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return o, false, nil
}

func (s *service) validateRequest(req PlaceOrderRequest) (string, error) {
	if len(req.Cart) == 0 {
		return "", fmt.Errorf("%w: cart is empty", ErrInvalidOrder)
	}
	for _, cl := range req.Cart {
		if strings.TrimSpace(cl.ID) == "" {
			return "", fmt.Errorf("%w: cart line without product id", ErrInvalidOrder)
		}
		if cl.Quantity < 1 || cl.Quantity > s.opts.MaxLineQuantity {
			return "", fmt.Errorf("%w: quantity for %s must be between 1 and %d", ErrInvalidOrder, cl.ID, s.opts.MaxLineQuantity)
		}
	}
	if !req.TotalAmount.IsPositive() {
		return "", fmt.Errorf("%w: totalAmount must be positive", ErrInvalidOrder)
	}
	if !req.PaymentMethod.Valid() {
		return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalidOrder, req.PaymentMethod)
	}

	email := strings.TrimSpace(req.Email)
	switch {
	case email != "":
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return "", fmt.Errorf("%w: malformed email %q", ErrInvalidOrder, email)
		}
	case req.TelegramUserID == 0:
		return "", fmt.Errorf("%w: email is required", ErrInvalidOrder)
	}
	return email, nil
}

func (s *service) resolveLines(ctx context.Context, cart []CartLine) ([]line, error) {
	lines := make([]line, 0, len(cart))
	for _, cl := range cart {
		if cl.Quantity > s.opts.MaxLineQuantity {
			return nil, fmt.Errorf("%w: quantity for %s must be between 1 and %d", ErrInvalidOrder, cl.ID, s.opts.MaxLineQuantity)
		}
		p, err := s.products.GetProduct(ctx, cl.ID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: unknown product %s", ErrInvalidOrder, cl.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: load product %s: %v", ErrPersistence, cl.ID, err)
		}
		if len(lines) > 0 && p.Currency != lines[0].product.Currency {
			return nil, fmt.Errorf("%w: cart mixes %s and %s prices", ErrInvalidOrder, lines[0].product.Currency, p.Currency)
		}
		lines = append(lines, line{product: p, quantity: cl.Quantity})
	}
	return lines, nil
}

// putBack returns taken codes to the head of their pools, last line first.
func (s *service) putBack(ctx context.Context, lines []line, taken [][]string) {
	for i := len(taken) - 1; i >= 0; i-- {
		if err := s.pools.PutBack(ctx, lines[i].product.ID, taken[i]); err != nil {
			s.logger.Printf("ALERT: could not return %d keys to %s, keys %v are out of the pool: %v",
				len(taken[i]), lines[i].product.ID, taken[i], err)
		}
	}
}

func (s *service) notify(ctx context.Context, o *Order) error {
	if s.notifier == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "order.Notify")
	defer span.End()

	if err := s.notifier.Notify(ctx, o); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *service) OrdersByEmail(ctx context.Context, email string) ([]*Order, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidOrder)
	}
	orders, err := s.ledger.FindByContact(ctx, email)
	if err != nil {
		return nil, err
	}
	return newestFirst(orders), nil
}

func (s *service) OrdersByTelegramUser(ctx context.Context, userID int64) ([]*Order, error) {
	orders, err := s.ledger.FindByTelegramUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newestFirst(orders), nil
}

func (s *service) ListOrders(ctx context.Context) ([]*Order, error) {
	orders, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	return newestFirst(orders), nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	orders, err := s.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now().UTC().Format("2006-01-02")
	st := &Stats{TotalOrders: len(orders), Recent: []*Order{}}
	for i, o := range orders {
		st.Revenue += o.Total
		if o.CreatedAt.UTC().Format("2006-01-02") == today {
			st.OrdersToday++
		}
		if i < recentOrders {
			st.Recent = append(st.Recent, o)
		}
	}
	return st, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// mergeCart folds repeated product ids into the first occurrence.
func mergeCart(cart []CartLine) []CartLine {
	merged := make([]CartLine, 0, len(cart))
	index := make(map[string]int, len(cart))
	for _, cl := range cart {
		id := strings.TrimSpace(cl.ID)
		if i, ok := index[id]; ok {
			merged[i].Quantity += cl.Quantity
			continue
		}
		index[id] = len(merged)
		merged = append(merged, CartLine{ID: id, Quantity: cl.Quantity})
	}
	return merged
}

func newestFirst(orders []*Order) []*Order {
	for i, j := 0, len(orders)-1; i < j; i, j = i+1, j-1 {
		orders[i], orders[j] = orders[j], orders[i]
	}
	return orders
}

// generateOrderNumber creates a human-readable order number: ORD-YYYYMMDD-XXXX
func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}
