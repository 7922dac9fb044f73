package repository

import (
	"context"
	"fmt"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/lock"
	"motico-catalog/internal/storage"
)

// ProductRepository defines the interface for product data access.
// Finders return a *domain.NotFoundError on a miss.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Reset(ctx context.Context) error
	Clear(ctx context.Context) error
}

type productRepository struct {
	products *storage.Collection[domain.Product]
	locker   lock.Locker
}

// NewProductRepository creates a new instance of ProductRepository. Every
// write holds the collection lock for its whole load-modify-save cycle.
func NewProductRepository(products *storage.Collection[domain.Product], locker lock.Locker) ProductRepository {
	return &productRepository{products: products, locker: locker}
}

func (r *productRepository) write(ctx context.Context, fn func([]domain.Product) ([]domain.Product, error)) error {
	release, err := r.locker.Acquire(ctx, r.products.Key())
	if err != nil {
		return fmt.Errorf("failed to lock products: %w", err)
	}
	defer release()

	products, err := r.products.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	products, err = fn(products)
	if err != nil {
		return err
	}

	if err := r.products.Save(ctx, products); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}
	return nil
}

// Create appends product after checking SKU and slug uniqueness. The
// stored version is written back to product once the save succeeds.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	stored := product.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	err := r.write(ctx, func(products []domain.Product) ([]domain.Product, error) {
		for i := range products {
			if products[i].ID == stored.ID {
				return nil, &domain.DuplicateKeyError{Entity: "product", Field: "id", Value: stored.ID}
			}
		}
		if err := checkUnique(products, stored); err != nil {
			return nil, err
		}
		return append(products, *stored), nil
	})
	if err != nil {
		return err
	}
	product.Version = stored.Version
	return nil
}

// Update replaces the stored product. product.Version must equal the
// stored version; it is incremented only after the save succeeds.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	stored := product.Clone()
	err := r.write(ctx, func(products []domain.Product) ([]domain.Product, error) {
		index := indexOf(products, stored.ID)
		if index == -1 {
			return nil, &domain.NotFoundError{Entity: "product", ID: stored.ID}
		}
		if products[index].Version != stored.Version {
			return nil, fmt.Errorf("product %s: stored version %d, got %d: %w",
				stored.ID, products[index].Version, stored.Version, domain.ErrConflict)
		}
		if err := checkUnique(products, stored); err != nil {
			return nil, err
		}

		stored.Version++
		products[index] = *stored
		return products, nil
	})
	if err != nil {
		return err
	}
	product.Version = stored.Version
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	return r.write(ctx, func(products []domain.Product) ([]domain.Product, error) {
		index := indexOf(products, id)
		if index == -1 {
			return nil, &domain.NotFoundError{Entity: "product", ID: id}
		}
		return append(products[:index], products[index+1:]...), nil
	})
}

// DeleteMany removes every listed product and returns how many existed
func (r *productRepository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}

	removed := 0
	err := r.write(ctx, func(products []domain.Product) ([]domain.Product, error) {
		kept := products[:0]
		for _, p := range products {
			if _, ok := remove[p.ID]; ok {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.find(ctx, id, func(p *domain.Product) bool { return p.ID == id })
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return r.find(ctx, sku, func(p *domain.Product) bool { return p.SKU == sku })
}

func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.find(ctx, slug, func(p *domain.Product) bool { return p.Slug == slug })
}

func (r *productRepository) find(ctx context.Context, key string, match func(*domain.Product) bool) (*domain.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if match(&products[i]) {
			return &products[i], nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "product", ID: key}
}

// List returns the live collection in insertion order
func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	products, err := r.products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

func (r *productRepository) Reset(ctx context.Context) error {
	if err := r.products.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset products: %w", err)
	}
	return nil
}

func (r *productRepository) Clear(ctx context.Context) error {
	if err := r.products.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	return nil
}

func indexOf(products []domain.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

// checkUnique rejects a SKU or slug already held by another product
func checkUnique(products []domain.Product, product *domain.Product) error {
	for i := range products {
		other := &products[i]
		if other.ID == product.ID {
			continue
		}
		if other.SKU == product.SKU {
			return &domain.DuplicateKeyError{Entity: "product", Field: "sku", Value: product.SKU}
		}
		if other.Slug == product.Slug {
			return &domain.DuplicateKeyError{Entity: "product", Field: "slug", Value: product.Slug}
		}
	}
	return nil
}
