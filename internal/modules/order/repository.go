package order

import "context"

// Repository is the append-only order ledger.
type Repository interface {
	// Append durably stores a new order. Concurrent appends never lose a record.
	// A number already in the ledger fails with ErrDuplicateNumber.
	Append(ctx context.Context, o *Order) error

	// FindByContact matches email case-insensitively. No match is an empty slice, not an error.
	FindByContact(ctx context.Context, email string) ([]*Order, error)

	// FindByTelegramUser returns the orders placed from one Telegram account.
	FindByTelegramUser(ctx context.Context, userID int64) ([]*Order, error)

	// FindByPaymentCharge returns the order paid by chargeID, or nil if none.
	FindByPaymentCharge(ctx context.Context, chargeID string) (*Order, error)

	// List returns every order, oldest first.
	List(ctx context.Context) ([]*Order, error)
}
