package inventory

import (
	"context"
	"sync"

	"github.com/georgemunganga/cardshop-backend/internal/platform/filestore"
)

type jsonRepo struct {
	mu    sync.Mutex
	doc   *filestore.Document
	pools map[string][]string
}

// NewJSONRepository loads keys.json from dataDir: an object of product id to key list.
func NewJSONRepository(dataDir string) (Repository, error) {
	doc, err := filestore.Open(dataDir, "keys.json")
	if err != nil {
		return nil, err
	}
	r := &jsonRepo{doc: doc, pools: map[string][]string{}}
	if err := doc.Load(&r.pools); err != nil {
		return nil, err
	}
	if r.pools == nil {
		r.pools = map[string][]string{}
	}
	return r, nil
}

func (r *jsonRepo) CheckAvailable(ctx context.Context, productID string, qty int) (Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.pools[productID])
	return Availability{Available: n >= qty, Count: n}, nil
}

func (r *jsonRepo) Take(ctx context.Context, productID string, qty int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := r.pools[productID]
	if qty <= 0 || len(pool) < qty {
		return nil, &ShortageError{ProductID: productID, Requested: qty, Available: len(pool)}
	}

	taken := append([]string(nil), pool[:qty]...)
	rest := append([]string(nil), pool[qty:]...)
	if err := r.commit(productID, rest); err != nil {
		return nil, err
	}
	return taken, nil
}

func (r *jsonRepo) Restock(ctx context.Context, productID string, codes []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := r.pools[productID]
	next := make([]string, 0, len(pool)+len(codes))
	next = append(append(next, pool...), codes...)
	if err := r.commit(productID, next); err != nil {
		return 0, err
	}
	return len(next), nil
}

func (r *jsonRepo) PutBack(ctx context.Context, productID string, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := r.pools[productID]
	next := make([]string, 0, len(pool)+len(codes))
	next = append(append(next, codes...), pool...)
	return r.commit(productID, next)
}

func (r *jsonRepo) Counts(ctx context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int, len(r.pools))
	for id, pool := range r.pools {
		counts[id] = len(pool)
	}
	return counts, nil
}

// commit writes the document with pool replaced and only then swaps memory.
func (r *jsonRepo) commit(productID string, pool []string) error {
	next := make(map[string][]string, len(r.pools)+1)
	for id, p := range r.pools {
		next[id] = p
	}
	next[productID] = pool
	if err := r.doc.Save(next); err != nil {
		return err
	}
	r.pools = next
	return nil
}
