package banner

import "context"

// Repository stores banners in insertion order.
type Repository interface {
	List(ctx context.Context) ([]*Banner, error)
	Create(ctx context.Context, b *Banner) error
	Update(ctx context.Context, b *Banner) error
	Delete(ctx context.Context, id string) error
}
