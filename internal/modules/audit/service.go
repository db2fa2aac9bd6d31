package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service records operator actions.
type Service interface {
	Record(ctx context.Context, actor, action, detail string) error
	// List returns up to limit entries, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*Entry, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Record(ctx context.Context, actor, action, detail string) error {
	return s.repo.Append(ctx, &Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    action,
		Detail:    detail,
	})
}

func (s *service) List(ctx context.Context, limit int) ([]*Entry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
