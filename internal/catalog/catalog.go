// Package catalog wires the storage collections, repositories and services
// shared by the API server and the admin CLI.
package catalog

import (
	"context"
	"fmt"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/lock"
	"motico-catalog/internal/logger"
	"motico-catalog/internal/repository"
	"motico-catalog/internal/seed"
	"motico-catalog/internal/service"
	"motico-catalog/internal/storage"

	"go.uber.org/zap"
)

// Options tunes how collections are keyed and seeded
type Options struct {
	KeyPrefix       string
	Seed            bool
	DefaultMinStock int
}

// Catalog is the assembled product catalog
type Catalog struct {
	Products   service.ProductService
	Inventory  service.InventoryService
	Categories repository.CategoryRepository
	Brands     repository.BrandRepository
	Logs       repository.InventoryLogRepository
}

// New binds the four collections on store and builds the services on top
func New(store storage.Store, locker lock.Locker, log *zap.Logger, opts Options) *Catalog {
	productSeed, categorySeed, brandSeed := seed.Products, seed.Categories, seed.Brands
	if !opts.Seed {
		productSeed, categorySeed, brandSeed = nil, nil, nil
	}

	products := repository.NewProductRepository(
		storage.NewCollection[domain.Product](store, opts.KeyPrefix, storage.KeyProducts, productSeed), locker)
	logs := repository.NewInventoryLogRepository(
		storage.NewCollection[domain.InventoryLog](store, opts.KeyPrefix, storage.KeyInventoryLog, seed.InventoryLogs), locker)
	categories := repository.NewCategoryRepository(
		storage.NewCollection[domain.Category](store, opts.KeyPrefix, storage.KeyCategories, categorySeed))
	brands := repository.NewBrandRepository(
		storage.NewCollection[domain.Brand](store, opts.KeyPrefix, storage.KeyBrands, brandSeed))

	inventory := service.NewInventoryService(products, logs, locker, logger.Named(log, "inventory"))
	productService := service.NewProductService(
		products, categories, brands, logs, inventory, locker,
		logger.Named(log, "products"),
		service.ProductServiceConfig{DefaultMinStock: opts.DefaultMinStock},
	)

	return &Catalog{
		Products:   productService,
		Inventory:  inventory,
		Categories: categories,
		Brands:     brands,
		Logs:       logs,
	}
}

// ResetAll restores every collection to the bundled dataset
func (c *Catalog) ResetAll(ctx context.Context) error {
	if err := c.Products.Reset(ctx); err != nil {
		return err
	}
	if err := c.Categories.Reset(ctx); err != nil {
		return fmt.Errorf("reset categories: %w", err)
	}
	if err := c.Brands.Reset(ctx); err != nil {
		return fmt.Errorf("reset brands: %w", err)
	}
	return nil
}

// ClearAll empties every collection. The next read seeds again when
// seeding is enabled.
func (c *Catalog) ClearAll(ctx context.Context) error {
	if err := c.Products.Clear(ctx); err != nil {
		return err
	}
	if err := c.Categories.Clear(ctx); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	if err := c.Brands.Clear(ctx); err != nil {
		return fmt.Errorf("clear brands: %w", err)
	}
	return nil
}
