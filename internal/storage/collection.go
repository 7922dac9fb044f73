package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// SchemaVersion is written into every saved collection envelope
const SchemaVersion = 1

type envelope[T any] struct {
	SchemaVersion int `json:"schemaVersion"`
	Items         []T `json:"items"`
}

// Collection is a typed view of one key: the whole slice is loaded and
// saved at once. A missing key is seeded from the default dataset on
// first load.
type Collection[T any] struct {
	store Store
	key   string
	seed  func() []T
}

// NewCollection binds name (prefixed) on store. seed may be nil.
func NewCollection[T any](store Store, prefix, name string, seed func() []T) *Collection[T] {
	return &Collection[T]{store: store, key: prefix + name, seed: seed}
}

func (c *Collection[T]) Key() string { return c.key }

// Load returns every item, seeding the collection when nothing is stored
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	payload, ok, err := c.store.Load(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		items := c.defaults()
		if err := c.Save(ctx, items); err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", c.key, err)
		}
		return items, nil
	}
	return decodeItems[T](payload)
}

func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(envelope[T]{SchemaVersion: SchemaVersion, Items: items})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.key, err)
	}
	return c.store.Save(ctx, c.key, payload)
}

// Reset overwrites the collection with the default dataset
func (c *Collection[T]) Reset(ctx context.Context) error {
	return c.Save(ctx, c.defaults())
}

// Clear removes the key; the next Load seeds again
func (c *Collection[T]) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, c.key)
}

func (c *Collection[T]) defaults() []T {
	if c.seed == nil {
		return []T{}
	}
	return c.seed()
}

// decodeItems accepts the versioned envelope and the bare JSON array
// written by the browser-local store (treated as version 0).
func decodeItems[T any](payload []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode legacy collection: %w", err)
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	}

	var env envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	if env.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("unsupported collection schema version %d", env.SchemaVersion)
	}
	if env.Items == nil {
		env.Items = []T{}
	}
	return env.Items, nil
}
