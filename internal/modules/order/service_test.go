package order_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/cardshop-backend/internal/modules/catalog"
	"github.com/georgemunganga/cardshop-backend/internal/modules/inventory"
	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
)

// ── test doubles ──────────────────────────────────────────────────────────────

type recordingNotifier struct {
	mu     sync.Mutex
	orders []*order.Order
	err    error
	block  bool
}

func (n *recordingNotifier) Notify(ctx context.Context, o *order.Order) error {
	if n.block {
		<-ctx.Done()
		return ctx.Err()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

// failingLedger rejects every append.
type failingLedger struct{ order.Repository }

func (failingLedger) Append(context.Context, *order.Order) error {
	return errors.New("disk full")
}

// racingPools simulates a key being taken between the check and the take.
type racingPools struct {
	inventory.Repository
	failProduct string
}

func (p racingPools) Take(ctx context.Context, productID string, qty int) ([]string, error) {
	if productID == p.failProduct {
		return nil, &inventory.ShortageError{ProductID: productID, Requested: qty, Available: 0}
	}
	return p.Repository.Take(ctx, productID, qty)
}

// cancellingPools cancels the caller's context once a take has committed and,
// like database/sql, refuses work on a cancelled context.
type cancellingPools struct {
	inventory.Repository
	cancel context.CancelFunc
}

func (p cancellingPools) CheckAvailable(ctx context.Context, productID string, qty int) (inventory.Availability, error) {
	if err := ctx.Err(); err != nil {
		return inventory.Availability{}, err
	}
	return p.Repository.CheckAvailable(ctx, productID, qty)
}

func (p cancellingPools) Take(ctx context.Context, productID string, qty int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	got, err := p.Repository.Take(ctx, productID, qty)
	p.cancel()
	return got, err
}

func (p cancellingPools) PutBack(ctx context.Context, productID string, codes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.Repository.PutBack(ctx, productID, codes)
}

// ctxLedger fails appends on a cancelled context.
type ctxLedger struct{ order.Repository }

func (l ctxLedger) Append(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.Repository.Append(ctx, o)
}

// collidingLedger reports the first collisions appends as duplicate numbers.
type collidingLedger struct {
	order.Repository
	collisions int
	numbers    []string
}

func (l *collidingLedger) Append(ctx context.Context, o *order.Order) error {
	l.numbers = append(l.numbers, o.Number)
	if len(l.numbers) <= l.collisions {
		return fmt.Errorf("%w: %s", order.ErrDuplicateNumber, o.Number)
	}
	return l.Repository.Append(ctx, o)
}

// ── fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	pools    inventory.Repository
	ledger   order.Repository
	catalog  catalog.Service
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	catalogRepo, err := catalog.NewJSONRepository(dir)
	require.NoError(t, err)
	products := catalog.NewService(catalogRepo)
	for _, req := range []catalog.CreateProductRequest{
		{ID: "us_10", Name: "PSN 10 USD", Region: catalog.RegionUSA, Currency: "RUB", Price: 774, Discount: 10},
		{ID: "us_20", Name: "PSN 20 USD", Region: catalog.RegionUSA, Currency: "RUB", Price: 1500},
		{ID: "tr_100", Name: "PSN 100 TRY", Region: catalog.RegionTurkey, Currency: "RUB", Price: 450},
	} {
		_, err := products.CreateProduct(ctx, req)
		require.NoError(t, err)
	}

	pools, err := inventory.NewJSONRepository(dir)
	require.NoError(t, err)
	ledger, err := order.NewJSONRepository(dir)
	require.NoError(t, err)

	return &fixture{pools: pools, ledger: ledger, catalog: products, notifier: &recordingNotifier{}}
}

func (f *fixture) service(opts order.Options) order.Service {
	return f.serviceWith(f.ledger, f.pools, opts)
}

func (f *fixture) serviceWith(ledger order.Repository, pools inventory.Repository, opts order.Options) order.Service {
	return order.NewService(ledger, pools, f.catalog, f.notifier, log.New(io.Discard, "", 0), opts)
}

func (f *fixture) stock(t *testing.T, productID string, codes ...string) {
	t.Helper()
	_, err := f.pools.Restock(context.Background(), productID, codes)
	require.NoError(t, err)
}

func (f *fixture) count(t *testing.T, productID string) int {
	t.Helper()
	a, err := f.pools.CheckAvailable(context.Background(), productID, 1)
	require.NoError(t, err)
	return a.Count
}

func (f *fixture) ledgerSize(t *testing.T) int {
	t.Helper()
	orders, err := f.ledger.List(context.Background())
	require.NoError(t, err)
	return len(orders)
}

func cardOrder(total int64, lines ...order.CartLine) order.PlaceOrderRequest {
	return order.PlaceOrderRequest{
		Email:         "a@b.com",
		Cart:          lines,
		TotalAmount:   decimal.NewFromInt(total),
		PaymentMethod: order.PaymentCard,
	}
}

// ── scenarios ─────────────────────────────────────────────────────────────────

func TestPlaceOrderHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "us_10", "K1", "K2", "K3")

	res, err := f.service(order.Options{}).PlaceOrder(ctx, cardOrder(1548, order.CartLine{ID: "us_10", Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, order.DeliveryDelivered, res.Delivery)
	assert.Equal(t, []order.Key{{Product: "us_10", Key: "K1"}, {Product: "us_10", Key: "K2"}}, res.Order.Keys)
	assert.Equal(t, int64(1548), res.Order.Total)
	assert.False(t, res.Order.TotalMismatch)
	assert.Equal(t, order.StatusCompleted, res.Order.Status)
	assert.Equal(t, "RUB", res.Order.Currency)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{4}$`, res.Order.Number)
	assert.Len(t, res.Order.ID, 26)

	remaining, err := f.pools.Take(ctx, "us_10", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"K3"}, remaining)

	orders, err := f.ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Keys, 2)
	assert.Equal(t, orders[0].Units(), len(orders[0].Keys))
	assert.Equal(t, 1, f.notifier.count())
}

func TestPlaceOrderShortfall(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "K1")

	_, err := f.service(order.Options{}).PlaceOrder(context.Background(), cardOrder(1548, order.CartLine{ID: "us_10", Quantity: 2}))
	require.ErrorIs(t, err, inventory.ErrInsufficientInventory)
	assert.Contains(t, err.Error(), "available 1")

	var shortage *inventory.ShortageError
	require.True(t, errors.As(err, &shortage))
	assert.Equal(t, "us_10", shortage.ProductID)

	assert.Equal(t, 1, f.count(t, "us_10"))
	assert.Zero(t, f.ledgerSize(t))
	assert.Zero(t, f.notifier.count())
}

func TestPlaceOrderMultiItemShortfallTouchesNothing(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "A1", "A2")
	f.stock(t, "us_20", "B1")

	_, err := f.service(order.Options{}).PlaceOrder(context.Background(), cardOrder(6048,
		order.CartLine{ID: "us_10", Quantity: 2},
		order.CartLine{ID: "us_20", Quantity: 3},
	))
	require.ErrorIs(t, err, inventory.ErrInsufficientInventory)
	assert.Contains(t, err.Error(), "us_20")

	assert.Equal(t, 2, f.count(t, "us_10"))
	assert.Equal(t, 1, f.count(t, "us_20"))
	assert.Zero(t, f.ledgerSize(t))
}

func TestPlaceOrderUndoesEarlierTakesWhenLaterTakeFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "us_10", "A1", "A2", "A3")
	f.stock(t, "us_20", "B1")

	svc := f.serviceWith(f.ledger, racingPools{Repository: f.pools, failProduct: "us_20"}, order.Options{})
	_, err := svc.PlaceOrder(ctx, cardOrder(3048,
		order.CartLine{ID: "us_10", Quantity: 2},
		order.CartLine{ID: "us_20", Quantity: 1},
	))
	require.ErrorIs(t, err, inventory.ErrInsufficientInventory)

	all, err := f.pools.Take(ctx, "us_10", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "A3"}, all, "keys returned to the head in original order")
	assert.Zero(t, f.ledgerSize(t))
}

func TestPlaceOrderLedgerFailureReturnsKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "us_10", "A1", "A2")
	f.stock(t, "tr_100", "T1")

	svc := f.serviceWith(failingLedger{f.ledger}, f.pools, order.Options{})
	_, err := svc.PlaceOrder(ctx, cardOrder(1224,
		order.CartLine{ID: "us_10", Quantity: 1},
		order.CartLine{ID: "tr_100", Quantity: 1},
	))
	require.ErrorIs(t, err, order.ErrPersistence)

	assert.Equal(t, 2, f.count(t, "us_10"))
	assert.Equal(t, 1, f.count(t, "tr_100"))
	first, err := f.pools.Take(ctx, "us_10", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, first)
	assert.Zero(t, f.notifier.count())
}

func TestPlaceOrderNotificationFailureIsDegraded(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "K1")
	f.notifier.err = errors.New("smtp down")

	res, err := f.service(order.Options{}).PlaceOrder(context.Background(), cardOrder(774, order.CartLine{ID: "us_10", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, order.DeliveryDegraded, res.Delivery)
	assert.EqualError(t, res.DeliveryErr, "smtp down")
	assert.Equal(t, 1, f.ledgerSize(t))
	assert.Zero(t, f.count(t, "us_10"))
}

func TestPlaceOrderNotificationTimeout(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "K1")
	f.notifier.block = true

	start := time.Now()
	res, err := f.service(order.Options{NotifyTimeout: 20 * time.Millisecond}).
		PlaceOrder(context.Background(), cardOrder(774, order.CartLine{ID: "us_10", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, order.DeliveryDegraded, res.Delivery)
	assert.ErrorIs(t, res.DeliveryErr, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPlaceOrderConcurrentBuyersNeverShareKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "us_10", "K1", "K2", "K3", "K4", "K5")
	svc := f.service(order.Options{})

	const buyers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		shortage int
		seen     = map[string]int{}
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.PlaceOrder(ctx, cardOrder(774, order.CartLine{ID: "us_10", Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, inventory.ErrInsufficientInventory) {
					shortage++
				}
				return
			}
			success++
			for _, k := range res.Order.Keys {
				seen[k.Key]++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, success)
	assert.Equal(t, buyers-5, shortage)
	assert.Len(t, seen, 5)
	for k, n := range seen {
		assert.Equal(t, 1, n, "key %s dispensed twice", k)
	}
	assert.Equal(t, 5, f.ledgerSize(t))
	assert.Zero(t, f.count(t, "us_10"))
}

func TestPlaceOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "us_10", "K1", "K2")
	require.NoError(t, f.catalog.ArchiveProduct(ctx, "us_20"))
	svc := f.service(order.Options{MaxLineQuantity: 3})

	tests := []struct {
		name   string
		mutate func(*order.PlaceOrderRequest)
	}{
		{"empty cart", func(r *order.PlaceOrderRequest) { r.Cart = nil }},
		{"zero quantity", func(r *order.PlaceOrderRequest) { r.Cart[0].Quantity = 0 }},
		{"quantity above max", func(r *order.PlaceOrderRequest) { r.Cart[0].Quantity = 4 }},
		{"merged quantity above max", func(r *order.PlaceOrderRequest) {
			r.Cart = []order.CartLine{{ID: "us_10", Quantity: 2}, {ID: "us_10", Quantity: 2}}
		}},
		{"blank product id", func(r *order.PlaceOrderRequest) { r.Cart[0].ID = " " }},
		{"malformed email", func(r *order.PlaceOrderRequest) { r.Email = "not-an-email" }},
		{"display-name email", func(r *order.PlaceOrderRequest) { r.Email = "Bob <bob@example.com>" }},
		{"missing contact", func(r *order.PlaceOrderRequest) { r.Email = "" }},
		{"zero total", func(r *order.PlaceOrderRequest) { r.TotalAmount = decimal.Zero }},
		{"negative total", func(r *order.PlaceOrderRequest) { r.TotalAmount = decimal.NewFromInt(-5) }},
		{"unknown payment method", func(r *order.PlaceOrderRequest) { r.PaymentMethod = "cash" }},
		{"unknown product", func(r *order.PlaceOrderRequest) { r.Cart[0].ID = "ghost" }},
		{"archived product", func(r *order.PlaceOrderRequest) { r.Cart[0].ID = "us_20" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := cardOrder(774, order.CartLine{ID: "us_10", Quantity: 1})
			tt.mutate(&req)
			_, err := svc.PlaceOrder(ctx, req)
			assert.ErrorIs(t, err, order.ErrInvalidOrder)
		})
	}

	assert.Equal(t, 2, f.count(t, "us_10"))
	assert.Zero(t, f.ledgerSize(t))
}

func TestPlaceOrderTelegramBuyerNeedsNoEmail(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "tr_100", "T1")

	res, err := f.service(order.Options{}).PlaceOrder(context.Background(), order.PlaceOrderRequest{
		Cart:             []order.CartLine{{ID: "tr_100", Quantity: 1}},
		TotalAmount:      decimal.NewFromInt(450),
		PaymentMethod:    order.PaymentTelegram,
		TelegramUserID:   42,
		TelegramUsername: "@buyer",
		PaymentChargeID:  "tg-charge-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.Order.TelegramUserID)
	assert.Equal(t, "buyer", res.Order.TelegramUsername)
	assert.Empty(t, res.Order.Email)

	orders, err := f.service(order.Options{}).OrdersByTelegramUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestPlaceOrderMergesDuplicateLines(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "K1", "K2")
	f.stock(t, "tr_100", "T1")

	res, err := f.service(order.Options{}).PlaceOrder(context.Background(), cardOrder(1998,
		order.CartLine{ID: "us_10", Quantity: 1},
		order.CartLine{ID: "tr_100", Quantity: 1},
		order.CartLine{ID: "us_10", Quantity: 1},
	))
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 2)
	assert.Equal(t, order.Item{ProductID: "us_10", Name: "PSN 10 USD", Quantity: 2, UnitPrice: 774}, res.Order.Items[0])
	assert.Equal(t, []order.Key{
		{Product: "us_10", Key: "K1"},
		{Product: "us_10", Key: "K2"},
		{Product: "tr_100", Key: "T1"},
	}, res.Order.Keys)
}

func TestPlaceOrderFlagsDeclaredTotalMismatch(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "K1")

	res, err := f.service(order.Options{}).PlaceOrder(context.Background(), cardOrder(1, order.CartLine{ID: "us_10", Quantity: 1}))
	require.NoError(t, err)
	assert.True(t, res.Order.TotalMismatch)
	assert.Equal(t, int64(774), res.Order.Total, "server total wins")
	assert.Equal(t, "1", res.Order.DeclaredTotal.String())

	f.stock(t, "us_10", "K2")
	req := cardOrder(0, order.CartLine{ID: "us_10", Quantity: 1})
	req.TotalAmount = decimal.RequireFromString("774.00")
	res, err = f.service(order.Options{}).PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Order.TotalMismatch)
}

func TestOrdersByEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "us_10", "K1", "K2")
	svc := f.service(order.Options{})

	req := cardOrder(774, order.CartLine{ID: "us_10", Quantity: 1})
	req.Email = "User@Example.com"
	_, err := svc.PlaceOrder(ctx, req)
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, cardOrder(774, order.CartLine{ID: "us_10", Quantity: 1}))
	require.NoError(t, err)

	orders, err := svc.OrdersByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "User@Example.com", orders[0].Email)

	none, err := svc.OrdersByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.OrdersByEmail(ctx, " ")
	assert.ErrorIs(t, err, order.ErrInvalidOrder)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "us_10", "K1", "K2", "K3", "K4")
	svc := f.service(order.Options{})

	var last string
	for i := 0; i < 4; i++ {
		res, err := svc.PlaceOrder(ctx, cardOrder(774, order.CartLine{ID: "us_10", Quantity: 1}))
		require.NoError(t, err)
		last = res.Order.ID
	}

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalOrders)
	assert.Equal(t, int64(4*774), st.Revenue)
	assert.Equal(t, 4, st.OrdersToday)
	require.Len(t, st.Recent, 3)
	assert.Equal(t, last, st.Recent[0].ID)
}

func TestPlaceOrderSurvivesCallerCancelAfterTake(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "K1", "K2", "K3")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := f.serviceWith(ctxLedger{f.ledger}, cancellingPools{Repository: f.pools, cancel: cancel}, order.Options{})
	res, err := svc.PlaceOrder(ctx, cardOrder(1548, order.CartLine{ID: "us_10", Quantity: 2}))
	require.NoError(t, err)

	assert.Len(t, res.Order.Keys, 2)
	assert.Equal(t, 1, f.ledgerSize(t))
	assert.Equal(t, 1, f.count(t, "us_10"))
}

func TestPlaceOrderCancelledRollbackStillReturnsKeys(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "K1", "K2", "K3")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := f.serviceWith(failingLedger{f.ledger}, cancellingPools{Repository: f.pools, cancel: cancel}, order.Options{})
	_, err := svc.PlaceOrder(ctx, cardOrder(1548, order.CartLine{ID: "us_10", Quantity: 2}))
	require.ErrorIs(t, err, order.ErrPersistence)

	assert.Equal(t, 3, f.count(t, "us_10"))
	assert.Zero(t, f.ledgerSize(t))
}

func TestPlaceOrderRetriesTakenOrderNumber(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "K1")
	ledger := &collidingLedger{Repository: f.ledger, collisions: 2}

	res, err := f.serviceWith(ledger, f.pools, order.Options{}).
		PlaceOrder(context.Background(), cardOrder(774, order.CartLine{ID: "us_10", Quantity: 1}))
	require.NoError(t, err)

	require.Len(t, ledger.numbers, 3)
	assert.Equal(t, ledger.numbers[2], res.Order.Number)
	assert.Equal(t, 1, f.ledgerSize(t))
	assert.Zero(t, f.count(t, "us_10"))
}

func TestPlaceOrderGivesUpOnPersistentNumberCollision(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "us_10", "K1")
	ledger := &collidingLedger{Repository: f.ledger, collisions: 100}

	_, err := f.serviceWith(ledger, f.pools, order.Options{}).
		PlaceOrder(context.Background(), cardOrder(774, order.CartLine{ID: "us_10", Quantity: 1}))
	require.ErrorIs(t, err, order.ErrPersistence)
	assert.ErrorIs(t, err, order.ErrDuplicateNumber)

	assert.Len(t, ledger.numbers, 5)
	assert.Equal(t, 1, f.count(t, "us_10"))
}

func TestPlaceOrderReplayedChargeReturnsFirstOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stock(t, "us_10", "K1", "K2")
	svc := f.service(order.Options{})

	req := order.PlaceOrderRequest{
		Cart:            []order.CartLine{{ID: "us_10", Quantity: 1}},
		TotalAmount:     decimal.NewFromInt(774),
		PaymentMethod:   order.PaymentTelegram,
		TelegramUserID:  42,
		PaymentChargeID: "tg-charge-1",
	}
	first, err := svc.PlaceOrder(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	again, err := svc.PlaceOrder(ctx, req)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.Equal(t, first.Order.Keys, again.Order.Keys)

	assert.Equal(t, 1, f.ledgerSize(t))
	assert.Equal(t, 1, f.count(t, "us_10"))
	assert.Equal(t, 1, f.notifier.count())
}
