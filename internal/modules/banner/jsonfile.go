package banner

import (
	"context"
	"sync"

	"github.com/georgemunganga/cardshop-backend/internal/platform/filestore"
)

type jsonRepo struct {
	mu      sync.RWMutex
	doc     *filestore.Document
	banners []*Banner
}

// NewJSONRepository loads banners.json from dataDir.
func NewJSONRepository(dataDir string) (Repository, error) {
	doc, err := filestore.Open(dataDir, "banners.json")
	if err != nil {
		return nil, err
	}
	r := &jsonRepo{doc: doc}
	if err := doc.Load(&r.banners); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *jsonRepo) List(ctx context.Context) ([]*Banner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Banner, 0, len(r.banners))
	for _, b := range r.banners {
		c := *b
		out = append(out, &c)
	}
	return out, nil
}

func (r *jsonRepo) Create(ctx context.Context, b *Banner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *b
	return r.commit(append(append([]*Banner(nil), r.banners...), &c))
}

func (r *jsonRepo) Update(ctx context.Context, b *Banner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(b.ID)
	if i < 0 {
		return ErrBannerNotFound
	}
	next := append([]*Banner(nil), r.banners...)
	c := *b
	next[i] = &c
	return r.commit(next)
}

func (r *jsonRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrBannerNotFound
	}
	next := make([]*Banner, 0, len(r.banners)-1)
	next = append(append(next, r.banners[:i]...), r.banners[i+1:]...)
	return r.commit(next)
}

func (r *jsonRepo) commit(next []*Banner) error {
	if err := r.doc.Save(next); err != nil {
		return err
	}
	r.banners = next
	return nil
}

func (r *jsonRepo) indexOf(id string) int {
	for i, b := range r.banners {
		if b.ID == id {
			return i
		}
	}
	return -1
}
