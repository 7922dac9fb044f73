// Package storage is the key-value persistence layer behind the catalog.
// Each collection is stored whole under one key as a JSON document.
package storage

import (
	"context"
	"errors"
)

// Collection keys, prefixed at runtime with the configured key prefix
const (
	KeyProducts     = "products"
	KeyInventoryLog = "inventory_log"
	KeyCategories   = "categories"
	KeyBrands       = "brands"
)

var ErrStoreClosed = errors.New("store is closed")

// Store loads and saves raw collection payloads by key
type Store interface {
	// Load returns the payload stored under key and whether it exists
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
	// Persistent reports whether data outlives the process
	Persistent() bool
	Close() error
}
