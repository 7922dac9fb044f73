package transport

import (
	"net/http"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/middleware"
	"motico-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BulkDeleteRequest represents the bulk delete payload
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// BulkDeleteResponse reports how many of the requested products existed
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// ProductHandler handles HTTP requests for catalog products
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes registers the storefront reads and the admin writes.
// protect guards every route that changes or exposes back-office data.
func (h *ProductHandler) RegisterRoutes(r chi.Router, protect ...func(http.Handler) http.Handler) {
	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/api/products", h.List)
		r.Get("/api/products/search", h.Search)
		r.Get("/api/products/featured", h.Featured)
		r.Get("/api/products/new", h.New)
		r.Get("/api/products/category/{categoryId}", h.ByCategory)
		r.Get("/api/products/brand/{brandId}", h.ByBrand)
		r.Get("/api/products/sku/{sku}", h.GetBySKU)
		r.Get("/api/products/slug/{slug}", h.GetBySlug)
		r.Get("/api/products/{id}", h.Get)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(protect...)
		r.Post("/api/products", h.Create)
		r.Patch("/api/products/{id}", h.Update)
		r.Delete("/api/products/{id}", h.Delete)
		r.Post("/api/products/bulk-delete", h.BulkDelete)
		r.Post("/api/products/{id}/duplicate", h.Duplicate)
		r.Post("/api/products/{id}/toggle-published", h.TogglePublished)
		r.Post("/api/products/{id}/toggle-featured", h.ToggleFeatured)
		r.Get("/api/products/low-stock", h.LowStock)
		r.Get("/api/products/out-of-stock", h.OutOfStock)
		r.Get("/api/dashboard/stats", h.Stats)
	})
}

// List handles the paginated, filtered product listing
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params, filter, err := parseListQuery(r.URL.Query())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	page, err := h.products.Paginate(r.Context(), params, filter)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Search handles the storefront text search over published products
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.products.Search(r.Context(), r.URL.Query().Get("q")))
}

// Featured lists published featured products
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.products.Featured(r.Context()))
}

// New lists published products flagged as new
func (h *ProductHandler) New(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.products.New(r.Context()))
}

// ByCategory lists published products in a category or subcategory
func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.products.ByCategory(r.Context(), chi.URLParam(r, "categoryId")))
}

// ByBrand lists published products of a brand
func (h *ProductHandler) ByBrand(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.products.ByBrand(r.Context(), chi.URLParam(r, "brandId")))
}

// LowStock lists products at or below their minimum level
func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.products.LowStock(r.Context()))
}

// OutOfStock lists products with nothing on hand
func (h *ProductHandler) OutOfStock(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.products.OutOfStock(r.Context()))
}

func (h *ProductHandler) respondList(w http.ResponseWriter, r *http.Request) func([]domain.Product, error) {
	return func(products []domain.Product, err error) {
		if err != nil {
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, products)
	}
}

// Get handles fetching one product, optionally joined with its relations
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if r.URL.Query().Get("include") == "relations" {
		product, err := h.products.GetWithRelations(r.Context(), id)
		if err != nil {
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
		if product == nil {
			middleware.RespondWithDomainError(w, &domain.NotFoundError{Entity: "product", ID: id}, h.logger)
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, product)
		return
	}

	h.respondProduct(w, "id", id)(h.products.GetByID(r.Context(), id))
}

// GetBySKU handles fetching a product by its business code
func (h *ProductHandler) GetBySKU(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	h.respondProduct(w, "sku", sku)(h.products.GetBySKU(r.Context(), sku))
}

// GetBySlug handles fetching a product by its URL slug
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	h.respondProduct(w, "slug", slug)(h.products.GetBySlug(r.Context(), slug))
}

// respondProduct turns a getter miss into a 404
func (h *ProductHandler) respondProduct(w http.ResponseWriter, field, value string) func(*domain.Product, error) {
	return func(product *domain.Product, err error) {
		if err != nil {
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
		if product == nil {
			msg := "product not found"
			if field == "id" {
				msg = (&domain.NotFoundError{Entity: "product", ID: value}).Error()
			}
			middleware.RespondWithErrorDetails(w, http.StatusNotFound, msg, map[string]interface{}{field: value})
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, product)
	}
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if !decodeRequest(w, r, &input, h.logger) {
		return
	}

	product, err := h.products.Create(r.Context(), input, middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Debug("Product creation failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles partial product updates
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if !decodeRequest(w, r, &patch, h.logger) {
		return
	}

	product, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), patch, middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Debug("Product update failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles removing one product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete handles removing several products; missing ids are skipped
func (h *ProductHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	deleted, err := h.products.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, BulkDeleteResponse{Deleted: deleted})
}

// Duplicate handles copying a product as an unpublished draft
func (h *ProductHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Duplicate(r.Context(), chi.URLParam(r, "id"), middleware.ActorFromContext(r.Context()))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// TogglePublished flips the published flag
func (h *ProductHandler) TogglePublished(w http.ResponseWriter, r *http.Request) {
	h.respondProduct(w, "id", chi.URLParam(r, "id"))(h.products.TogglePublished(r.Context(), chi.URLParam(r, "id")))
}

// ToggleFeatured flips the featured flag
func (h *ProductHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	h.respondProduct(w, "id", chi.URLParam(r, "id"))(h.products.ToggleFeatured(r.Context(), chi.URLParam(r, "id")))
}

// Stats handles the dashboard counters
func (h *ProductHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.products.Stats(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
