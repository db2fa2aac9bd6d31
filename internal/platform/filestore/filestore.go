// Package filestore persists whole JSON documents to flat files.
//
// A Document is one file holding one concern (products, key pools, orders...).
// Writes go to a temp file in the same directory, are fsynced, and then renamed
// over the target so readers never observe a half-written document. Document
// does no locking of its own: the owning repository serializes access.
package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type Document struct {
	path string
}

// Open returns a Document for name inside dir, creating dir if needed.
func Open(dir, name string) (*Document, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Document{path: filepath.Join(dir, name)}, nil
}

func (d *Document) Path() string { return d.path }

// Load decodes the file into v. A missing or empty file leaves v untouched.
func (d *Document) Load(v interface{}) error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", d.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.path, err)
	}
	return nil
}

// Save atomically replaces the file with the JSON encoding of v.
func (d *Document) Save(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", d.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("replace %s: %w", d.path, err)
	}
	return nil
}
