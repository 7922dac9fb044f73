// Package seed holds the default catalog written into empty storage
package seed

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"motico-catalog/internal/domain"
)

//go:embed data/*.json
var files embed.FS

var (
	once       sync.Once
	products   []domain.Product
	categories []domain.Category
	brands     []domain.Brand
	loadErr    error
)

func load() {
	once.Do(func() {
		if loadErr = decode("data/products.json", &products); loadErr != nil {
			return
		}
		if loadErr = decode("data/categories.json", &categories); loadErr != nil {
			return
		}
		loadErr = decode("data/brands.json", &brands)
	})
	if loadErr != nil {
		panic(fmt.Sprintf("seed: %v", loadErr))
	}
}

func decode(name string, v any) error {
	raw, err := files.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Products returns a fresh copy of the default products
func Products() []domain.Product {
	load()
	out := make([]domain.Product, len(products))
	for i := range products {
		out[i] = *products[i].Clone()
	}
	return out
}

func Categories() []domain.Category {
	load()
	return append([]domain.Category(nil), categories...)
}

func Brands() []domain.Brand {
	load()
	return append([]domain.Brand(nil), brands...)
}

// InventoryLogs is empty: history starts when the store is first used
func InventoryLogs() []domain.InventoryLog {
	return []domain.InventoryLog{}
}
