package domain

import "github.com/shopspring/decimal"

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

const (
	DefaultPage   = 1
	DefaultLimit  = 10
	DefaultSortBy = "createdAt"
)

// ProductFilter holds conjunctive listing predicates. Zero values are ignored.
type ProductFilter struct {
	Search        string
	CategoryID    string
	SubcategoryID string
	BrandID       string
	StockStatus   StockStatus
	IsPublished   *bool
	IsFeatured    *bool
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
}

// PaginationParams selects a 1-indexed page and its ordering
type PaginationParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder SortOrder
}

// PaginatedResult is one page of a filtered, sorted listing
type PaginatedResult[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// DashboardStats are catalog counters recomputed on every call
type DashboardStats struct {
	TotalProducts      int `json:"totalProducts"`
	PublishedProducts  int `json:"publishedProducts"`
	LowStockProducts   int `json:"lowStockProducts"`
	OutOfStockProducts int `json:"outOfStockProducts"`
	TotalCategories    int `json:"totalCategories"`
	TotalBrands        int `json:"totalBrands"`
}
