package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/viajesoeste/apiserver/internal/storage"
)

const documentContentType = "application/json"

// document is a JSON value stored whole under a single object key. Every
// mutation reads the full document and writes it back; there is no locking,
// so concurrent writers race and the last snapshot wins.
type document[T any] struct {
	storage *storage.Storage
	key     string
	empty   func() T
}

func newDocument[T any](s *storage.Storage, key string, empty func() T) *document[T] {
	return &document[T]{storage: s, key: key, empty: empty}
}

// load returns the stored value, or the empty value if nothing is stored yet.
func (d *document[T]) load(ctx context.Context) (T, error) {
	value := d.empty()
	data, err := d.storage.Read(ctx, d.key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return value, nil
		}
		return value, fmt.Errorf("read %s: %w", d.storage.Location(d.key), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return value, nil
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return d.empty(), fmt.Errorf("decode %s: %w", d.storage.Location(d.key), err)
	}
	return value, nil
}

func (d *document[T]) save(ctx context.Context, value T) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.key, err)
	}
	if err := d.storage.Write(ctx, d.key, data, documentContentType); err != nil {
		return fmt.Errorf("write %s: %w", d.storage.Location(d.key), err)
	}
	return nil
}
