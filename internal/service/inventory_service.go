package service

import (
	"context"
	"errors"
	"fmt"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/lock"
	"motico-catalog/internal/repository"

	"go.uber.org/zap"
)

const initialStockNote = "Initial stock on product creation"

// InventoryService is the stock ledger. Every quantity change writes the
// product first and then appends exactly one log row.
type InventoryService interface {
	Adjust(ctx context.Context, productID string, delta int, reason domain.InventoryReason, notes, actor string) (*domain.Product, error)
	Set(ctx context.Context, productID string, quantity int, notes, actor string) (*domain.Product, error)
	AdjustVariant(ctx context.Context, productID, variantID string, delta int, reason domain.InventoryReason, notes, actor string) (*domain.Product, error)
	Logs(ctx context.Context, productID string) ([]domain.InventoryLog, error)
	RecordInitial(ctx context.Context, product *domain.Product, actor string) error
	RecordChange(ctx context.Context, product *domain.Product, previous int, reason domain.InventoryReason, notes, actor string) error
}

type inventoryService struct {
	products repository.ProductRepository
	logs     repository.InventoryLogRepository
	locker   lock.Locker
	logger   *zap.Logger
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(
	products repository.ProductRepository,
	logs repository.InventoryLogRepository,
	locker lock.Locker,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		products: products,
		logs:     logs,
		locker:   locker,
		logger:   logger,
	}
}

// Adjust moves top-level stock by delta, clamping the result at zero
func (s *inventoryService) Adjust(ctx context.Context, productID string, delta int, reason domain.InventoryReason, notes, actor string) (*domain.Product, error) {
	if !reason.Valid() {
		return nil, &domain.ValidationError{Field: "reason", Message: fmt.Sprintf("unknown inventory reason %q", reason)}
	}
	return s.move(ctx, productID, reason, notes, actor, func(current int) int {
		return clampStock(current + delta)
	})
}

// Set overwrites top-level stock, logged as an adjustment
func (s *inventoryService) Set(ctx context.Context, productID string, quantity int, notes, actor string) (*domain.Product, error) {
	if quantity < 0 {
		return nil, &domain.ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	return s.move(ctx, productID, domain.ReasonAdjustment, notes, actor, func(int) int {
		return quantity
	})
}

// move runs one locked read-modify-write of the top-level quantity.
// next receives the current quantity read under the lock.
func (s *inventoryService) move(ctx context.Context, productID string, reason domain.InventoryReason, notes, actor string, next func(current int) int) (*domain.Product, error) {
	release, err := s.locker.Acquire(ctx, productLockKey(productID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	defer release()

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.HasVariants {
		return nil, &domain.ValidationError{
			Field:   "variantId",
			Message: "stock of a product with variants is the sum of its variants; adjust a variant instead",
		}
	}

	previous := product.StockQuantity
	product.StockQuantity = next(previous)
	product.StockStatus = domain.CalculateStockStatus(product.StockQuantity, product.MinStockLevel)
	product.UpdatedAt = domain.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	entry := newLogEntry(product.ID, nil, previous, product.StockQuantity, reason, notes, actor)
	if err := s.appendLog(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Inventory adjusted",
		zap.String("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.String("reason", string(reason)),
		zap.Int("previous", previous),
		zap.Int("new", product.StockQuantity),
	)
	return product, nil
}

// AdjustVariant moves one variant's stock and re-derives the product total
func (s *inventoryService) AdjustVariant(ctx context.Context, productID, variantID string, delta int, reason domain.InventoryReason, notes, actor string) (*domain.Product, error) {
	if !reason.Valid() {
		return nil, &domain.ValidationError{Field: "reason", Message: fmt.Sprintf("unknown inventory reason %q", reason)}
	}

	release, err := s.locker.Acquire(ctx, productLockKey(productID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	defer release()

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	index := product.FindVariant(variantID)
	if index == -1 {
		return nil, &domain.NotFoundError{Entity: "variant", ID: variantID}
	}

	variant := &product.Variants[index]
	previous := variant.StockQuantity
	variant.StockQuantity = clampStock(previous + delta)
	if product.HasVariants {
		product.StockQuantity = product.VariantStock()
		product.StockStatus = domain.CalculateStockStatus(product.StockQuantity, product.MinStockLevel)
	}
	product.UpdatedAt = domain.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update variant stock: %w", err)
	}

	entry := newLogEntry(product.ID, &variantID, previous, variant.StockQuantity, reason, notes, actor)
	if err := s.appendLog(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Variant inventory adjusted",
		zap.String("product_id", product.ID),
		zap.String("variant_id", variantID),
		zap.String("reason", string(reason)),
		zap.Int("previous", previous),
		zap.Int("new", variant.StockQuantity),
	)
	return product, nil
}

// Logs returns the product's history newest first. Rows of deleted
// products are still returned.
func (s *inventoryService) Logs(ctx context.Context, productID string) ([]domain.InventoryLog, error) {
	logs, err := s.logs.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory logs: %w", err)
	}
	return logs, nil
}

// RecordInitial logs the opening stock of a freshly created product: one
// row per stocked variant, or one product row. Nothing is logged for
// untracked or empty products.
func (s *inventoryService) RecordInitial(ctx context.Context, product *domain.Product, actor string) error {
	if !product.TrackInventory {
		return nil
	}

	if product.HasVariants {
		for i := range product.Variants {
			v := &product.Variants[i]
			if v.StockQuantity <= 0 {
				continue
			}
			id := v.ID
			entry := newLogEntry(product.ID, &id, 0, v.StockQuantity, domain.ReasonInitial, initialStockNote, actor)
			if err := s.appendLog(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	}

	if product.StockQuantity <= 0 {
		return nil
	}
	entry := newLogEntry(product.ID, nil, 0, product.StockQuantity, domain.ReasonInitial, initialStockNote, actor)
	return s.appendLog(ctx, entry)
}

// RecordChange logs a top-level quantity change made outside Adjust/Set,
// such as a product switching to derived variant stock.
func (s *inventoryService) RecordChange(ctx context.Context, product *domain.Product, previous int, reason domain.InventoryReason, notes, actor string) error {
	entry := newLogEntry(product.ID, nil, previous, product.StockQuantity, reason, notes, actor)
	return s.appendLog(ctx, entry)
}

// appendLog reports, never swallows, a failed append after the product
// write already succeeded.
func (s *inventoryService) appendLog(ctx context.Context, entry *domain.InventoryLog) error {
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append inventory log",
			zap.String("product_id", entry.ProductID),
			zap.Int("previous", entry.PreviousQuantity),
			zap.Int("new", entry.NewQuantity),
			zap.Error(err),
		)
		return fmt.Errorf("product %s: %w", entry.ProductID, errors.Join(domain.ErrAuditAppend, err))
	}
	return nil
}

func newLogEntry(productID string, variantID *string, previous, next int, reason domain.InventoryReason, notes, actor string) *domain.InventoryLog {
	if actor == "" {
		actor = domain.SystemUser
	}
	var n *string
	if notes != "" {
		n = &notes
	}
	return &domain.InventoryLog{
		ID:               domain.NewID(),
		ProductID:        productID,
		VariantID:        variantID,
		PreviousQuantity: previous,
		NewQuantity:      next,
		Change:           next - previous,
		Reason:           reason,
		Notes:            n,
		UserID:           actor,
		CreatedAt:        domain.Now(),
	}
}

func clampStock(q int) int {
	if q < 0 {
		return 0
	}
	return q
}

func productLockKey(id string) string {
	return "product:" + id
}
