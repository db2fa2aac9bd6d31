package inventory

import "context"

// Repository owns the per-product key pools. Pools are FIFO: Take returns the
// oldest keys first and Restock appends to the tail.
//
// Take re-checks the count itself and fails with a *ShortageError when the
// pool is too small, leaving it untouched. Every mutation is durable before
// the call returns.
type Repository interface {
	CheckAvailable(ctx context.Context, productID string, qty int) (Availability, error)
	Take(ctx context.Context, productID string, qty int) ([]string, error)
	// Restock appends codes and returns the new pool size.
	Restock(ctx context.Context, productID string, codes []string) (int, error)
	// PutBack returns codes to the head of the pool. Only used to undo a Take
	// whose order never reached the ledger.
	PutBack(ctx context.Context, productID string, codes []string) error
	Counts(ctx context.Context) (map[string]int, error)
}
