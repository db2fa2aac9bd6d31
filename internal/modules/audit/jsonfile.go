package audit

import (
	"context"
	"sync"

	"github.com/georgemunganga/cardshop-backend/internal/platform/filestore"
)

type jsonRepo struct {
	mu      sync.Mutex
	doc     *filestore.Document
	entries []*Entry
}

// NewJSONRepository loads admin_log.json from dataDir.
func NewJSONRepository(dataDir string) (Repository, error) {
	doc, err := filestore.Open(dataDir, "admin_log.json")
	if err != nil {
		return nil, err
	}
	r := &jsonRepo{doc: doc}
	if err := doc.Load(&r.entries); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *jsonRepo) Append(ctx context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := append(append(make([]*Entry, 0, len(r.entries)+1), r.entries...), e)
	if len(next) > MaxEntries {
		next = next[len(next)-MaxEntries:]
	}
	if err := r.doc.Save(next); err != nil {
		return err
	}
	r.entries = next
	return nil
}

func (r *jsonRepo) List(ctx context.Context) ([]*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Entry, len(r.entries))
	for i, e := range r.entries {
		c := *e
		out[i] = &c
	}
	return out, nil
}
