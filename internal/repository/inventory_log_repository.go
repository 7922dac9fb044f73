package repository

import (
	"context"
	"fmt"
	"sort"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/lock"
	"motico-catalog/internal/storage"
)

// InventoryLogRepository is the append-only audit trail of stock changes
type InventoryLogRepository interface {
	Append(ctx context.Context, entry *domain.InventoryLog) error
	ListByProduct(ctx context.Context, productID string) ([]domain.InventoryLog, error)
	Reset(ctx context.Context) error
	Clear(ctx context.Context) error
}

type inventoryLogRepository struct {
	logs   *storage.Collection[domain.InventoryLog]
	locker lock.Locker
}

func NewInventoryLogRepository(logs *storage.Collection[domain.InventoryLog], locker lock.Locker) InventoryLogRepository {
	return &inventoryLogRepository{logs: logs, locker: locker}
}

func (r *inventoryLogRepository) Append(ctx context.Context, entry *domain.InventoryLog) error {
	release, err := r.locker.Acquire(ctx, r.logs.Key())
	if err != nil {
		return fmt.Errorf("failed to lock inventory log: %w", err)
	}
	defer release()

	logs, err := r.logs.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load inventory log: %w", err)
	}
	if err := r.logs.Save(ctx, append(logs, *entry)); err != nil {
		return fmt.Errorf("failed to save inventory log: %w", err)
	}
	return nil
}

// ListByProduct returns the product's rows newest first. Rows sharing a
// timestamp come back in reverse insertion order.
func (r *inventoryLogRepository) ListByProduct(ctx context.Context, productID string) ([]domain.InventoryLog, error) {
	logs, err := r.logs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory log: %w", err)
	}

	result := make([]domain.InventoryLog, 0)
	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].ProductID == productID {
			result = append(result, logs[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *inventoryLogRepository) Reset(ctx context.Context) error {
	if err := r.logs.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset inventory log: %w", err)
	}
	return nil
}

func (r *inventoryLogRepository) Clear(ctx context.Context) error {
	if err := r.logs.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear inventory log: %w", err)
	}
	return nil
}
