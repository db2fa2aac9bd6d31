package banner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service defines banner management.
type Service interface {
	// ListEnabled returns enabled banners sorted by Order; ties keep insertion order.
	ListEnabled(ctx context.Context) ([]*Banner, error)
	ListAll(ctx context.Context) ([]*Banner, error)
	Create(ctx context.Context, req BannerRequest) (*Banner, error)
	Update(ctx context.Context, id string, req BannerRequest) (*Banner, error)
	Delete(ctx context.Context, id string) error
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) ListEnabled(ctx context.Context) ([]*Banner, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	enabled := make([]*Banner, 0, len(all))
	for _, b := range all {
		if b.Enabled {
			enabled = append(enabled, b)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool { return enabled[i].Order < enabled[j].Order })
	return enabled, nil
}

func (s *service) ListAll(ctx context.Context) ([]*Banner, error) {
	return s.repo.List(ctx)
}

func (s *service) Create(ctx context.Context, req BannerRequest) (*Banner, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidBanner)
	}
	now := time.Now().UTC()
	b := &Banner{
		ID:        uuid.NewString(),
		Enabled:   req.Enabled == nil || *req.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(b, req)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, id string, req BannerRequest) (*Banner, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidBanner)
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}
	apply(b, req)
	b.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) get(ctx context.Context, id string) (*Banner, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range all {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, ErrBannerNotFound
}

func apply(b *Banner, req BannerRequest) {
	b.Title = strings.TrimSpace(req.Title)
	b.Subtitle = req.Subtitle
	b.ImageURL = req.ImageURL
	b.Link = req.Link
	b.Order = req.Order
}
