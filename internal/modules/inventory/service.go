package inventory

import (
	"context"
	"sort"
	"strings"

	"github.com/georgemunganga/cardshop-backend/internal/modules/catalog"
)

// Service wraps the key pools with the operator-facing helpers.
type Service interface {
	CheckAvailable(ctx context.Context, productID string, qty int) (Availability, error)
	// Restock cleans codes (one per entry or newline separated, blanks dropped),
	// appends them to the product's pool and returns how many were added and
	// the new pool size.
	Restock(ctx context.Context, productID string, codes []string) (added, count int, err error)
	StockLevels(ctx context.Context) ([]StockLevel, error)
}

type service struct {
	repo    Repository
	catalog catalog.Service
}

func NewService(repo Repository, catalogService catalog.Service) Service {
	return &service{repo: repo, catalog: catalogService}
}

func (s *service) CheckAvailable(ctx context.Context, productID string, qty int) (Availability, error) {
	return s.repo.CheckAvailable(ctx, productID, qty)
}

func (s *service) Restock(ctx context.Context, productID string, codes []string) (int, int, error) {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return 0, 0, err
	}
	clean := CleanCodes(codes)
	if len(clean) == 0 {
		return 0, 0, ErrNoKeys
	}
	count, err := s.repo.Restock(ctx, productID, clean)
	if err != nil {
		return 0, 0, err
	}
	return len(clean), count, nil
}

// StockLevels lists every live product plus any pool whose product is gone.
func (s *service) StockLevels(ctx context.Context) ([]StockLevel, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.catalog.ListProducts(ctx, "")
	if err != nil {
		return nil, err
	}

	levels := make([]StockLevel, 0, len(products))
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		seen[p.ID] = true
		n := counts[p.ID]
		levels = append(levels, StockLevel{ProductID: p.ID, Name: p.Name, Count: n, Status: statusFor(n)})
	}

	var orphans []string
	for id, n := range counts {
		if !seen[id] && n > 0 {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		levels = append(levels, StockLevel{ProductID: id, Count: counts[id], Status: statusFor(counts[id])})
	}
	return levels, nil
}

// CleanCodes splits multi-line entries and drops blank lines.
func CleanCodes(codes []string) []string {
	var out []string
	for _, entry := range codes {
		for _, line := range strings.Split(entry, "\n") {
			if code := strings.TrimSpace(line); code != "" {
				out = append(out, code)
			}
		}
	}
	return out
}
