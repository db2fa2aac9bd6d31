package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/georgemunganga/cardshop-backend/internal/platform/filestore"
)

type jsonRepo struct {
	mu       sync.RWMutex
	doc      *filestore.Document
	products []*Product
}

// NewJSONRepository loads products.json from dataDir.
func NewJSONRepository(dataDir string) (Repository, error) {
	doc, err := filestore.Open(dataDir, "products.json")
	if err != nil {
		return nil, err
	}
	r := &jsonRepo{doc: doc}
	if err := doc.Load(&r.products); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *jsonRepo) Create(ctx context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(p.ID) >= 0 {
		return fmt.Errorf("%w: product %s already exists", ErrInvalidProduct, p.ID)
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	next := append(append([]*Product(nil), r.products...), p.clone())
	if err := r.doc.Save(next); err != nil {
		return err
	}
	r.products = next
	return nil
}

func (r *jsonRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrProductNotFound
	}
	return r.products[i].clone(), nil
}

func (r *jsonRepo) List(ctx context.Context) ([]*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.clone())
	}
	return out, nil
}

func (r *jsonRepo) Update(ctx context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(p.ID)
	if i < 0 {
		return ErrProductNotFound
	}
	p.UpdatedAt = time.Now().UTC()

	next := append([]*Product(nil), r.products...)
	next[i] = p.clone()
	if err := r.doc.Save(next); err != nil {
		return err
	}
	r.products = next
	return nil
}

func (r *jsonRepo) indexOf(id string) int {
	for i, p := range r.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
