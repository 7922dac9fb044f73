package service

import (
	"sort"
	"strings"
	"time"

	"motico-catalog/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// matchesFilter applies every non-zero predicate of f (logical AND)
func matchesFilter(p *domain.Product, f domain.ProductFilter) bool {
	if f.Search != "" && !matchesSearch(p, strings.ToLower(f.Search)) {
		return false
	}
	if f.CategoryID != "" && p.CategoryID != f.CategoryID {
		return false
	}
	if f.SubcategoryID != "" && (p.SubcategoryID == nil || *p.SubcategoryID != f.SubcategoryID) {
		return false
	}
	if f.BrandID != "" && p.BrandID != f.BrandID {
		return false
	}
	if f.StockStatus != "" && p.StockStatus != f.StockStatus {
		return false
	}
	if f.IsPublished != nil && p.IsPublished != *f.IsPublished {
		return false
	}
	if f.IsFeatured != nil && p.IsFeatured != *f.IsFeatured {
		return false
	}

	// a product without a price is treated as free
	price := decimal.Zero
	if p.Price.Valid {
		price = p.Price.Decimal
	}
	if f.PriceMin != nil && price.LessThan(*f.PriceMin) {
		return false
	}
	if f.PriceMax != nil && price.GreaterThan(*f.PriceMax) {
		return false
	}
	return true
}

// matchesSearch is a case-insensitive substring match; needle is lowercase
func matchesSearch(p *domain.Product, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.SKU), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	return p.ShortDescription != nil && strings.Contains(strings.ToLower(*p.ShortDescription), needle)
}

func filterProducts(products []domain.Product, keep func(*domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if keep(&products[i]) {
			out = append(out, products[i])
		}
	}
	return out
}

// sortKey extracts one sortable column. A nil result means the value is
// absent; absent values always sort last.
type sortKey func(p *domain.Product) any

var sortKeys = map[string]sortKey{
	"name":             func(p *domain.Product) any { return p.Name },
	"sku":              func(p *domain.Product) any { return p.SKU },
	"slug":             func(p *domain.Product) any { return p.Slug },
	"description":      func(p *domain.Product) any { return p.Description },
	"shortDescription": func(p *domain.Product) any { return optString(p.ShortDescription) },
	"categoryId":       func(p *domain.Product) any { return p.CategoryID },
	"subcategoryId":    func(p *domain.Product) any { return optString(p.SubcategoryID) },
	"brandId":          func(p *domain.Product) any { return p.BrandID },
	"currency":         func(p *domain.Product) any { return string(p.Currency) },
	"stockStatus":      func(p *domain.Product) any { return string(p.StockStatus) },
	"metaTitle":        func(p *domain.Product) any { return optString(p.MetaTitle) },
	"metaDescription":  func(p *domain.Product) any { return optString(p.MetaDescription) },
	"price":            func(p *domain.Product) any { return optDecimal(p.Price) },
	"compareAtPrice":   func(p *domain.Product) any { return optDecimal(p.CompareAtPrice) },
	"stockQuantity":    func(p *domain.Product) any { return p.StockQuantity },
	"minStockLevel":    func(p *domain.Product) any { return p.MinStockLevel },
	"isPublished":      func(p *domain.Product) any { return p.IsPublished },
	"isFeatured":       func(p *domain.Product) any { return p.IsFeatured },
	"isNew":            func(p *domain.Product) any { return p.IsNew },
	"createdAt":        func(p *domain.Product) any { return p.CreatedAt },
	"updatedAt":        func(p *domain.Product) any { return p.UpdatedAt },
	"publishedAt":      func(p *domain.Product) any { return optTime(p.PublishedAt) },
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func optDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}

func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// sortProducts orders products in place. Unknown fields fall back to
// createdAt. The sort is stable so ties keep their stored order.
func sortProducts(products []domain.Product, sortBy string, order domain.SortOrder) {
	key, ok := sortKeys[sortBy]
	if !ok {
		key = sortKeys[domain.DefaultSortBy]
	}
	// a Collator keeps scratch buffers and must not be shared
	col := collate.New(language.English)
	desc := order == domain.SortOrderDesc

	sort.SliceStable(products, func(i, j int) bool {
		a, b := key(&products[i]), key(&products[j])
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		}
		c := compareValues(col, a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareValues(col *collate.Collator, a, b any) int {
	switch av := a.(type) {
	case string:
		return col.CompareString(av, b.(string))
	case int:
		bv := b.(int)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case decimal.Decimal:
		return av.Cmp(b.(decimal.Decimal))
	case time.Time:
		return av.Compare(b.(time.Time))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	}
	return 0
}

// normalizePagination fills defaults for zero values and rejects the rest
func normalizePagination(params domain.PaginationParams) (domain.PaginationParams, error) {
	if params.Page == 0 {
		params.Page = domain.DefaultPage
	}
	if params.Limit == 0 {
		params.Limit = domain.DefaultLimit
	}
	if params.SortBy == "" {
		params.SortBy = domain.DefaultSortBy
	}
	if params.SortOrder == "" {
		params.SortOrder = domain.SortOrderDesc
	}

	if params.Page < 1 {
		return params, &domain.ValidationError{Field: "page", Message: "must be a positive integer"}
	}
	if params.Limit < 1 {
		return params, &domain.ValidationError{Field: "limit", Message: "must be a positive integer"}
	}
	if params.SortOrder != domain.SortOrderAsc && params.SortOrder != domain.SortOrderDesc {
		return params, &domain.ValidationError{Field: "sortOrder", Message: "must be asc or desc"}
	}
	return params, nil
}

// paginate slices one page out of sorted products. An out-of-range page
// yields an empty page with the real totals.
func paginate(products []domain.Product, params domain.PaginationParams) *domain.PaginatedResult[domain.Product] {
	total := len(products)
	totalPages := (total + params.Limit - 1) / params.Limit

	data := []domain.Product{}
	offset := (params.Page - 1) * params.Limit
	if offset < total {
		end := offset + params.Limit
		if end > total {
			end = total
		}
		data = append(data, products[offset:end]...)
	}

	return &domain.PaginatedResult[domain.Product]{
		Data:       data,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
		HasMore:    params.Page < totalPages,
	}
}
