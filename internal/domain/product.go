package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus is the derived availability bucket of a product
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// Valid reports whether s is one of the three known buckets
func (s StockStatus) Valid() bool {
	switch s {
	case StockStatusInStock, StockStatusLowStock, StockStatusOutOfStock:
		return true
	}
	return false
}

// Currency of a product price
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyLBP Currency = "LBP"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyLBP:
		return true
	}
	return false
}

const DefaultMinStockLevel = 10

// ProductImage is a gallery entry of a product
type ProductImage struct {
	ID        string `json:"id"`
	URL       string `json:"url" validate:"required"`
	Alt       string `json:"alt"`
	SortOrder int    `json:"sortOrder"`
	IsPrimary bool   `json:"isPrimary"`
}

// Specification is a free-form technical attribute, e.g. {grain, Grain Type, Ceramic}
type Specification struct {
	Key   string `json:"key" validate:"required"`
	Label string `json:"label" validate:"required"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Group string `json:"group,omitempty"`
}

// Variant is a sellable sub-unit with its own SKU, price and stock
type Variant struct {
	ID            string              `json:"id"`
	SKU           string              `json:"sku" validate:"required"`
	Name          string              `json:"name" validate:"required"`
	Price         decimal.NullDecimal `json:"price"`
	StockQuantity int                 `json:"stockQuantity" validate:"gte=0"`
	Attributes    map[string]string   `json:"attributes"`
	IsActive      bool                `json:"isActive"`
}

// Product represents a product in the catalog
type Product struct {
	ID               string          `json:"id"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	ShortDescription *string         `json:"shortDescription"`
	Description      string          `json:"description"`
	Features         []string        `json:"features"`
	CategoryID       string          `json:"categoryId"`
	SubcategoryID    *string         `json:"subcategoryId"`
	BrandID          string          `json:"brandId"`
	Images           []ProductImage  `json:"images"`
	Specifications   []Specification `json:"specifications"`
	Variants         []Variant       `json:"variants"`
	HasVariants      bool            `json:"hasVariants"`

	Price          decimal.NullDecimal `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compareAtPrice"`
	Currency       Currency            `json:"currency"`

	StockQuantity  int         `json:"stockQuantity"`
	StockStatus    StockStatus `json:"stockStatus"`
	MinStockLevel  int         `json:"minStockLevel"`
	TrackInventory bool        `json:"trackInventory"`
	AllowBackorder bool        `json:"allowBackorder"`

	IsPublished bool `json:"isPublished"`
	IsFeatured  bool `json:"isFeatured"`
	IsNew       bool `json:"isNew"`

	MetaTitle       *string `json:"metaTitle"`
	MetaDescription *string `json:"metaDescription"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt"`

	// Version is bumped on every successful write and checked on update.
	Version int64 `json:"version"`
}

// VariantStock is the sum of the stock of all active variants
func (p *Product) VariantStock() int {
	total := 0
	for _, v := range p.Variants {
		if v.IsActive {
			total += v.StockQuantity
		}
	}
	return total
}

// FindVariant returns the index of the variant with the given id, or -1
func (p *Product) FindVariant(id string) int {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of p
func (p *Product) Clone() *Product {
	c := *p
	c.ShortDescription = cloneString(p.ShortDescription)
	c.SubcategoryID = cloneString(p.SubcategoryID)
	c.MetaTitle = cloneString(p.MetaTitle)
	c.MetaDescription = cloneString(p.MetaDescription)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		c.PublishedAt = &t
	}
	c.Features = append([]string(nil), p.Features...)
	c.Images = append([]ProductImage(nil), p.Images...)
	c.Specifications = append([]Specification(nil), p.Specifications...)
	c.Variants = make([]Variant, len(p.Variants))
	for i, v := range p.Variants {
		attrs := make(map[string]string, len(v.Attributes))
		for k, val := range v.Attributes {
			attrs[k] = val
		}
		v.Attributes = attrs
		c.Variants[i] = v
	}
	return &c
}

// ProductInput carries the fields accepted when creating a product.
// Nil pointers take the catalog defaults.
type ProductInput struct {
	SKU              string          `json:"sku" validate:"required,max=100"`
	Name             string          `json:"name" validate:"required,max=255"`
	Slug             string          `json:"slug" validate:"omitempty,max=255"`
	ShortDescription *string         `json:"shortDescription"`
	Description      string          `json:"description"`
	Features         []string        `json:"features"`
	CategoryID       string          `json:"categoryId" validate:"required"`
	SubcategoryID    *string         `json:"subcategoryId"`
	BrandID          string          `json:"brandId" validate:"required"`
	Images           []ProductImage  `json:"images" validate:"dive"`
	Specifications   []Specification `json:"specifications" validate:"dive"`
	Variants         []Variant       `json:"variants" validate:"dive"`
	HasVariants      bool            `json:"hasVariants"`

	Price          decimal.NullDecimal `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compareAtPrice"`
	Currency       Currency            `json:"currency" validate:"omitempty,oneof=USD EUR LBP"`

	StockQuantity  *int  `json:"stockQuantity"`
	MinStockLevel  *int  `json:"minStockLevel"`
	TrackInventory *bool `json:"trackInventory"`
	AllowBackorder *bool `json:"allowBackorder"`

	IsPublished *bool `json:"isPublished"`
	IsFeatured  *bool `json:"isFeatured"`
	IsNew       *bool `json:"isNew"`

	MetaTitle       *string `json:"metaTitle"`
	MetaDescription *string `json:"metaDescription"`
}

// ProductPatch is a partial update. Only non-nil fields are applied.
type ProductPatch struct {
	SKU              *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Name             *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Slug             *string          `json:"slug" validate:"omitempty,min=1,max=255"`
	ShortDescription *string          `json:"shortDescription"`
	Description      *string          `json:"description"`
	Features         *[]string        `json:"features"`
	CategoryID       *string          `json:"categoryId" validate:"omitempty,min=1"`
	SubcategoryID    *string          `json:"subcategoryId"`
	BrandID          *string          `json:"brandId" validate:"omitempty,min=1"`
	Images           *[]ProductImage  `json:"images"`
	Specifications   *[]Specification `json:"specifications"`
	Variants         *[]Variant       `json:"variants"`
	HasVariants      *bool            `json:"hasVariants"`

	Price          *decimal.NullDecimal `json:"price"`
	CompareAtPrice *decimal.NullDecimal `json:"compareAtPrice"`
	Currency       *Currency            `json:"currency" validate:"omitempty,oneof=USD EUR LBP"`

	// StockQuantity is refused; quantities move through the inventory ledger.
	StockQuantity  *int  `json:"stockQuantity"`
	MinStockLevel  *int  `json:"minStockLevel"`
	TrackInventory *bool `json:"trackInventory"`
	AllowBackorder *bool `json:"allowBackorder"`

	IsPublished *bool `json:"isPublished"`
	IsFeatured  *bool `json:"isFeatured"`
	IsNew       *bool `json:"isNew"`

	MetaTitle       *string `json:"metaTitle"`
	MetaDescription *string `json:"metaDescription"`
}

// ProductWithRelations is a product joined with its category, subcategory and brand
type ProductWithRelations struct {
	Product
	Category    Category  `json:"category"`
	Subcategory *Category `json:"subcategory"`
	Brand       Brand     `json:"brand"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
