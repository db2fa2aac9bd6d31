package audit

import "context"

// Repository stores audit entries oldest first.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context) ([]*Entry, error)
}
