package catalog

import "context"

// Repository defines the interface for product storage.
// GetByID returns ErrProductNotFound for unknown ids; archived products are still returned.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
}
