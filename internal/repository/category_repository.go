package repository

import (
	"context"
	"fmt"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/storage"
)

// CategoryRepository is the read side of the category tree used for
// product relations and dashboard counters.
type CategoryRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
	Clear(ctx context.Context) error
}

// BrandRepository mirrors CategoryRepository for brands
type BrandRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Brand, error)
	List(ctx context.Context) ([]domain.Brand, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
	Clear(ctx context.Context) error
}

type lookupRepository[T any] struct {
	entity string
	items  *storage.Collection[T]
	id     func(*T) string
}

func NewCategoryRepository(categories *storage.Collection[domain.Category]) CategoryRepository {
	return &lookupRepository[domain.Category]{
		entity: "category",
		items:  categories,
		id:     func(c *domain.Category) string { return c.ID },
	}
}

func NewBrandRepository(brands *storage.Collection[domain.Brand]) BrandRepository {
	return &lookupRepository[domain.Brand]{
		entity: "brand",
		items:  brands,
		id:     func(b *domain.Brand) string { return b.ID },
	}
}

func (r *lookupRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if r.id(&items[i]) == id {
			return &items[i], nil
		}
	}
	return nil, &domain.NotFoundError{Entity: r.entity, ID: id}
}

func (r *lookupRepository[T]) List(ctx context.Context) ([]T, error) {
	items, err := r.items.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s list: %w", r.entity, err)
	}
	return items, nil
}

func (r *lookupRepository[T]) Count(ctx context.Context) (int, error) {
	items, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *lookupRepository[T]) Reset(ctx context.Context) error {
	if err := r.items.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset %s list: %w", r.entity, err)
	}
	return nil
}

func (r *lookupRepository[T]) Clear(ctx context.Context) error {
	if err := r.items.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear %s list: %w", r.entity, err)
	}
	return nil
}
