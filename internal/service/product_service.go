package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/lock"
	"motico-catalog/internal/repository"

	"go.uber.org/zap"
)

// ProductService defines the catalog operations. Getters return nil
// without an error when nothing matches.
type ProductService interface {
	Create(ctx context.Context, input domain.ProductInput, actor string) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch, actor string) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
	TogglePublished(ctx context.Context, id string) (*domain.Product, error)
	ToggleFeatured(ctx context.Context, id string) (*domain.Product, error)
	Duplicate(ctx context.Context, id, actor string) (*domain.Product, error)

	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetWithRelations(ctx context.Context, id string) (*domain.ProductWithRelations, error)

	List(ctx context.Context) ([]domain.Product, error)
	Published(ctx context.Context) ([]domain.Product, error)
	Featured(ctx context.Context) ([]domain.Product, error)
	New(ctx context.Context) ([]domain.Product, error)
	ByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	ByBrand(ctx context.Context, brandID string) ([]domain.Product, error)
	LowStock(ctx context.Context) ([]domain.Product, error)
	OutOfStock(ctx context.Context) ([]domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	Paginate(ctx context.Context, params domain.PaginationParams, filter domain.ProductFilter) (*domain.PaginatedResult[domain.Product], error)

	Count(ctx context.Context) (int, error)
	PublishedCount(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*domain.DashboardStats, error)

	Reset(ctx context.Context) error
	Clear(ctx context.Context) error
}

// ProductServiceConfig carries catalog-wide defaults
type ProductServiceConfig struct {
	DefaultMinStock int
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	logs       repository.InventoryLogRepository
	inventory  InventoryService
	locker     lock.Locker
	logger     *zap.Logger
	cfg        ProductServiceConfig
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	brands repository.BrandRepository,
	logs repository.InventoryLogRepository,
	inventory InventoryService,
	locker lock.Locker,
	logger *zap.Logger,
	cfg ProductServiceConfig,
) ProductService {
	if cfg.DefaultMinStock <= 0 {
		cfg.DefaultMinStock = domain.DefaultMinStockLevel
	}
	return &productService{
		products:   products,
		categories: categories,
		brands:     brands,
		logs:       logs,
		inventory:  inventory,
		locker:     locker,
		logger:     logger,
		cfg:        cfg,
	}
}

// Create validates input, fills defaults and stores a new product. Opening
// stock is logged with reason initial.
func (s *productService) Create(ctx context.Context, input domain.ProductInput, actor string) (*domain.Product, error) {
	product, err := s.buildProduct(input)
	if err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if err := s.inventory.RecordInitial(ctx, product, actor); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.Int("stock", product.StockQuantity),
	)
	return product, nil
}

func (s *productService) buildProduct(input domain.ProductInput) (*domain.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, &domain.ValidationError{Field: "sku", Message: "is required"}
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = domain.Slugify(input.Name)
	}
	if slug == "" {
		return nil, &domain.ValidationError{Field: "slug", Message: "cannot be derived from the product name"}
	}

	currency := input.Currency
	if currency == "" {
		currency = domain.CurrencyUSD
	}
	if !currency.Valid() {
		return nil, &domain.ValidationError{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", currency)}
	}

	minStock := intOr(input.MinStockLevel, s.cfg.DefaultMinStock)
	if minStock < 0 {
		return nil, &domain.ValidationError{Field: "minStockLevel", Message: "must not be negative"}
	}

	variants, err := prepareVariants(input.Variants)
	if err != nil {
		return nil, err
	}

	stock := intOr(input.StockQuantity, 0)
	if stock < 0 {
		return nil, &domain.ValidationError{Field: "stockQuantity", Message: "must not be negative"}
	}

	now := domain.Now()
	product := &domain.Product{
		ID:               domain.NewID(),
		SKU:              sku,
		Name:             input.Name,
		Slug:             slug,
		ShortDescription: emptyToNil(input.ShortDescription),
		Description:      input.Description,
		Features:         nonNil(input.Features),
		CategoryID:       input.CategoryID,
		SubcategoryID:    emptyToNil(input.SubcategoryID),
		BrandID:          input.BrandID,
		Images:           nonNil(input.Images),
		Specifications:   nonNil(input.Specifications),
		Variants:         variants,
		HasVariants:      input.HasVariants,
		Price:            input.Price,
		CompareAtPrice:   input.CompareAtPrice,
		Currency:         currency,
		StockQuantity:    stock,
		MinStockLevel:    minStock,
		TrackInventory:   boolOr(input.TrackInventory, true),
		AllowBackorder:   boolOr(input.AllowBackorder, false),
		IsPublished:      boolOr(input.IsPublished, false),
		IsFeatured:       boolOr(input.IsFeatured, false),
		IsNew:            boolOr(input.IsNew, true),
		MetaTitle:        input.MetaTitle,
		MetaDescription:  input.MetaDescription,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if product.HasVariants {
		derived := product.VariantStock()
		if input.StockQuantity != nil && *input.StockQuantity != derived {
			return nil, &domain.ValidationError{
				Field:   "stockQuantity",
				Message: fmt.Sprintf("must equal the variant total %d when the product has variants", derived),
			}
		}
		product.StockQuantity = derived
	}
	product.StockStatus = domain.CalculateStockStatus(product.StockQuantity, product.MinStockLevel)

	if product.IsPublished {
		product.PublishedAt = &now
	}
	return product, nil
}

// prepareVariants assigns missing ids and rejects negative or repeated entries
func prepareVariants(in []domain.Variant) ([]domain.Variant, error) {
	out := make([]domain.Variant, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		if v.ID == "" {
			v.ID = domain.NewID()
		}
		if v.StockQuantity < 0 {
			return nil, &domain.ValidationError{Field: "variants", Message: fmt.Sprintf("variant %q has negative stock", v.SKU)}
		}
		if seen[v.ID] || (v.SKU != "" && seen["sku:"+v.SKU]) {
			return nil, &domain.ValidationError{Field: "variants", Message: fmt.Sprintf("variant %q is listed twice", v.SKU)}
		}
		seen[v.ID] = true
		if v.SKU != "" {
			seen["sku:"+v.SKU] = true
		}
		if v.Attributes == nil {
			v.Attributes = map[string]string{}
		}
		out = append(out, v)
	}
	return out, nil
}

// Update applies patch to the stored product. Stock quantities are owned by
// the inventory ledger: a patch may only repeat the stored values.
func (s *productService) Update(ctx context.Context, id string, patch domain.ProductPatch, actor string) (*domain.Product, error) {
	var previous int
	product, err := s.mutate(ctx, id, func(p *domain.Product) error {
		previous = p.StockQuantity
		return applyPatch(p, patch)
	})
	if err != nil {
		return nil, err
	}

	if product.StockQuantity != previous {
		err := s.inventory.RecordChange(ctx, product, previous, domain.ReasonAdjustment, "Stock derived from variants", actor)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("Product updated",
		zap.String("product_id", product.ID),
		zap.String("sku", product.SKU),
	)
	return product, nil
}

// mutate runs fn on the stored product under its lock, then re-derives
// stock status, bumps updatedAt and writes the result.
func (s *productService) mutate(ctx context.Context, id string, fn func(p *domain.Product) error) (*domain.Product, error) {
	release, err := s.locker.Acquire(ctx, productLockKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	defer release()

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(product); err != nil {
		return nil, err
	}
	product.StockStatus = domain.CalculateStockStatus(product.StockQuantity, product.MinStockLevel)
	product.UpdatedAt = domain.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func applyPatch(p *domain.Product, patch domain.ProductPatch) error {
	if patch.StockQuantity != nil && *patch.StockQuantity != p.StockQuantity {
		return &domain.ValidationError{
			Field:   "stockQuantity",
			Message: "stock changes must go through inventory adjust or set",
		}
	}
	if patch.MinStockLevel != nil && *patch.MinStockLevel < 0 {
		return &domain.ValidationError{Field: "minStockLevel", Message: "must not be negative"}
	}
	if patch.Currency != nil && !patch.Currency.Valid() {
		return &domain.ValidationError{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", *patch.Currency)}
	}

	if patch.SKU != nil {
		sku := strings.TrimSpace(*patch.SKU)
		if sku == "" {
			return &domain.ValidationError{Field: "sku", Message: "must not be empty"}
		}
		p.SKU = sku
	}
	if patch.Slug != nil {
		slug := strings.TrimSpace(*patch.Slug)
		if slug == "" {
			return &domain.ValidationError{Field: "slug", Message: "must not be empty"}
		}
		p.Slug = slug
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ShortDescription != nil {
		p.ShortDescription = emptyToNil(patch.ShortDescription)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Features != nil {
		p.Features = nonNil(*patch.Features)
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.SubcategoryID != nil {
		p.SubcategoryID = emptyToNil(patch.SubcategoryID)
	}
	if patch.BrandID != nil {
		p.BrandID = *patch.BrandID
	}
	if patch.Images != nil {
		p.Images = nonNil(*patch.Images)
	}
	if patch.Specifications != nil {
		p.Specifications = nonNil(*patch.Specifications)
	}
	if patch.Variants != nil {
		variants, err := mergeVariants(p.Variants, *patch.Variants)
		if err != nil {
			return err
		}
		p.Variants = variants
	}
	if patch.HasVariants != nil {
		p.HasVariants = *patch.HasVariants
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.CompareAtPrice != nil {
		p.CompareAtPrice = *patch.CompareAtPrice
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.MinStockLevel != nil {
		p.MinStockLevel = *patch.MinStockLevel
	}
	if patch.TrackInventory != nil {
		p.TrackInventory = *patch.TrackInventory
	}
	if patch.AllowBackorder != nil {
		p.AllowBackorder = *patch.AllowBackorder
	}
	if patch.IsFeatured != nil {
		p.IsFeatured = *patch.IsFeatured
	}
	if patch.IsNew != nil {
		p.IsNew = *patch.IsNew
	}
	if patch.MetaTitle != nil {
		p.MetaTitle = emptyToNil(patch.MetaTitle)
	}
	if patch.MetaDescription != nil {
		p.MetaDescription = emptyToNil(patch.MetaDescription)
	}

	if patch.IsPublished != nil {
		setPublished(p, *patch.IsPublished)
	}

	if p.HasVariants {
		p.StockQuantity = p.VariantStock()
	}
	return nil
}

// setPublished stamps publishedAt on a false->true transition and clears
// it whenever the product is unpublished.
func setPublished(p *domain.Product, published bool) {
	if published && !p.IsPublished {
		now := domain.Now()
		p.PublishedAt = &now
	}
	if !published {
		p.PublishedAt = nil
	}
	p.IsPublished = published
}

// mergeVariants accepts a replacement variant list. Known variants must
// keep their stored stock and new ones must start empty.
func mergeVariants(stored, incoming []domain.Variant) ([]domain.Variant, error) {
	byID := make(map[string]domain.Variant, len(stored))
	for _, v := range stored {
		byID[v.ID] = v
	}

	for _, v := range incoming {
		if old, ok := byID[v.ID]; ok && v.ID != "" {
			if v.StockQuantity != old.StockQuantity {
				return nil, &domain.ValidationError{
					Field:   "variants",
					Message: fmt.Sprintf("stock of variant %q must be changed through the inventory ledger", v.SKU),
				}
			}
			continue
		}
		if v.StockQuantity != 0 {
			return nil, &domain.ValidationError{
				Field:   "variants",
				Message: fmt.Sprintf("new variant %q must start with zero stock", v.SKU),
			}
		}
	}
	return prepareVariants(incoming)
}

func (s *productService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// DeleteMany is best effort: unknown ids are skipped, not reported
func (s *productService) DeleteMany(ctx context.Context, ids []string) (int, error) {
	removed, err := s.products.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	s.logger.Info("Products deleted", zap.Int("requested", len(ids)), zap.Int("removed", removed))
	return removed, nil
}

func (s *productService) TogglePublished(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.mutate(ctx, id, func(p *domain.Product) error {
		setPublished(p, !p.IsPublished)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product publish state toggled",
		zap.String("product_id", id),
		zap.Bool("published", product.IsPublished),
	)
	return product, nil
}

func (s *productService) ToggleFeatured(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.mutate(ctx, id, func(p *domain.Product) error {
		p.IsFeatured = !p.IsFeatured
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product featured state toggled",
		zap.String("product_id", id),
		zap.Bool("featured", product.IsFeatured),
	)
	return product, nil
}

// Duplicate creates an unpublished, empty copy of a product. The copy's
// SKU and slug get the first free -COPY / -COPY-n suffix.
func (s *productService) Duplicate(ctx context.Context, id, actor string) (*domain.Product, error) {
	source, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	skus := make(map[string]bool, len(all))
	slugs := make(map[string]bool, len(all))
	for _, p := range all {
		skus[p.SKU] = true
		slugs[p.Slug] = true
	}

	suffix := "-COPY"
	for n := 2; skus[source.SKU+suffix] || slugs[source.Slug+strings.ToLower(suffix)]; n++ {
		suffix = fmt.Sprintf("-COPY-%d", n)
	}

	variants := make([]domain.Variant, len(source.Variants))
	for i, v := range source.Variants {
		v.ID = ""
		v.StockQuantity = 0
		if v.SKU != "" {
			v.SKU += suffix
		}
		variants[i] = v
	}

	zero := 0
	published := false
	input := domain.ProductInput{
		SKU:              source.SKU + suffix,
		Name:             source.Name + " (Copy)",
		Slug:             source.Slug + strings.ToLower(suffix),
		ShortDescription: source.ShortDescription,
		Description:      source.Description,
		Features:         source.Features,
		CategoryID:       source.CategoryID,
		SubcategoryID:    source.SubcategoryID,
		BrandID:          source.BrandID,
		Images:           source.Images,
		Specifications:   source.Specifications,
		Variants:         variants,
		HasVariants:      source.HasVariants,
		Price:            source.Price,
		CompareAtPrice:   source.CompareAtPrice,
		Currency:         source.Currency,
		StockQuantity:    &zero,
		MinStockLevel:    &source.MinStockLevel,
		TrackInventory:   &source.TrackInventory,
		AllowBackorder:   &source.AllowBackorder,
		IsPublished:      &published,
		IsFeatured:       &source.IsFeatured,
		IsNew:            &source.IsNew,
		MetaTitle:        source.MetaTitle,
		MetaDescription:  source.MetaDescription,
	}

	product, err := s.Create(ctx, input, actor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product duplicated",
		zap.String("source_id", source.ID),
		zap.String("product_id", product.ID),
		zap.String("sku", product.SKU),
	)
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return orNil(s.products.FindByID(ctx, id))
}

func (s *productService) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return orNil(s.products.FindBySKU(ctx, sku))
}

func (s *productService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return orNil(s.products.FindBySlug(ctx, slug))
}

// GetWithRelations joins category, subcategory and brand. A dangling
// category or brand reference yields nil; a dangling subcategory is dropped.
func (s *productService) GetWithRelations(ctx context.Context, id string) (*domain.ProductWithRelations, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil || product == nil {
		return nil, err
	}

	category, err := orNil(s.categories.FindByID(ctx, product.CategoryID))
	if err != nil || category == nil {
		return nil, err
	}
	brand, err := orNil(s.brands.FindByID(ctx, product.BrandID))
	if err != nil || brand == nil {
		return nil, err
	}

	var subcategory *domain.Category
	if product.SubcategoryID != nil {
		subcategory, err = orNil(s.categories.FindByID(ctx, *product.SubcategoryID))
		if err != nil {
			return nil, err
		}
	}

	return &domain.ProductWithRelations{
		Product:     *product,
		Category:    *category,
		Subcategory: subcategory,
		Brand:       *brand,
	}, nil
}

func (s *productService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *productService) where(ctx context.Context, keep func(p *domain.Product) bool) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterProducts(products, keep), nil
}

func (s *productService) Published(ctx context.Context) ([]domain.Product, error) {
	return s.where(ctx, func(p *domain.Product) bool { return p.IsPublished })
}

func (s *productService) Featured(ctx context.Context) ([]domain.Product, error) {
	return s.where(ctx, func(p *domain.Product) bool { return p.IsPublished && p.IsFeatured })
}

func (s *productService) New(ctx context.Context) ([]domain.Product, error) {
	return s.where(ctx, func(p *domain.Product) bool { return p.IsPublished && p.IsNew })
}

// ByCategory matches the owning category or the subcategory
func (s *productService) ByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	return s.where(ctx, func(p *domain.Product) bool {
		return p.IsPublished &&
			(p.CategoryID == categoryID || (p.SubcategoryID != nil && *p.SubcategoryID == categoryID))
	})
}

func (s *productService) ByBrand(ctx context.Context, brandID string) ([]domain.Product, error) {
	return s.where(ctx, func(p *domain.Product) bool { return p.IsPublished && p.BrandID == brandID })
}

func (s *productService) LowStock(ctx context.Context) ([]domain.Product, error) {
	return s.where(ctx, func(p *domain.Product) bool { return p.StockStatus == domain.StockStatusLowStock })
}

func (s *productService) OutOfStock(ctx context.Context) ([]domain.Product, error) {
	return s.where(ctx, func(p *domain.Product) bool { return p.StockStatus == domain.StockStatusOutOfStock })
}

// Search is the storefront search: published products only
func (s *productService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	filter := domain.ProductFilter{Search: strings.TrimSpace(query)}
	return s.where(ctx, func(p *domain.Product) bool {
		return p.IsPublished && matchesFilter(p, filter)
	})
}

func (s *productService) Paginate(ctx context.Context, params domain.PaginationParams, filter domain.ProductFilter) (*domain.PaginatedResult[domain.Product], error) {
	params, err := normalizePagination(params)
	if err != nil {
		return nil, err
	}

	products, err := s.where(ctx, func(p *domain.Product) bool { return matchesFilter(p, filter) })
	if err != nil {
		return nil, err
	}
	sortProducts(products, params.SortBy, params.SortOrder)
	return paginate(products, params), nil
}

func (s *productService) Count(ctx context.Context) (int, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

func (s *productService) PublishedCount(ctx context.Context) (int, error) {
	products, err := s.Published(ctx)
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

// Stats recomputes the dashboard counters in a single pass
func (s *productService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.DashboardStats{TotalProducts: len(products)}
	for i := range products {
		p := &products[i]
		if p.IsPublished {
			stats.PublishedProducts++
		}
		switch p.StockStatus {
		case domain.StockStatusLowStock:
			stats.LowStockProducts++
		case domain.StockStatusOutOfStock:
			stats.OutOfStockProducts++
		}
	}

	if stats.TotalCategories, err = s.categories.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalBrands, err = s.brands.Count(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

// Reset restores the default catalog and empties the inventory log
func (s *productService) Reset(ctx context.Context) error {
	if err := s.products.Reset(ctx); err != nil {
		return err
	}
	if err := s.logs.Reset(ctx); err != nil {
		return err
	}
	s.logger.Info("Catalog reset to defaults")
	return nil
}

// Clear removes both collections; the next read seeds them again
func (s *productService) Clear(ctx context.Context) error {
	if err := s.products.Clear(ctx); err != nil {
		return err
	}
	if err := s.logs.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("Catalog cleared")
	return nil
}

// orNil turns a NotFound lookup into a nil result
func orNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func nonNil[T any](s []T) []T {
	if len(s) == 0 {
		return []T{}
	}
	return append([]T(nil), s...)
}
