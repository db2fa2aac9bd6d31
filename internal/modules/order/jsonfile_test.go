package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
)

func ledgerOrder(id, number, charge string) *order.Order {
	return &order.Order{
		ID:              id,
		Number:          number,
		TelegramUserID:  42,
		Keys:            []order.Key{{Product: "us_10", Key: "K-" + id}},
		PaymentMethod:   order.PaymentTelegram,
		PaymentChargeID: charge,
		Status:          order.StatusCompleted,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestJSONLedgerRejectsDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	repo, err := order.NewJSONRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Append(ctx, ledgerOrder("A", "ORD-20260101-AAAA", "")))
	err = repo.Append(ctx, ledgerOrder("B", "ORD-20260101-AAAA", ""))
	assert.ErrorIs(t, err, order.ErrDuplicateNumber)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJSONLedgerFindByPaymentCharge(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := order.NewJSONRepository(dir)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, ledgerOrder("A", "ORD-20260101-AAAA", "charge-1")))
	require.NoError(t, repo.Append(ctx, ledgerOrder("B", "ORD-20260101-BBBB", "")))

	reopened, err := order.NewJSONRepository(dir)
	require.NoError(t, err)

	o, err := reopened.FindByPaymentCharge(ctx, "charge-1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "A", o.ID)

	o, err = reopened.FindByPaymentCharge(ctx, "charge-2")
	require.NoError(t, err)
	assert.Nil(t, o)

	o, err = reopened.FindByPaymentCharge(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, o)
}
