package transport

import (
	"net/http"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/middleware"
	"motico-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdjustStockRequest moves stock by a signed delta. The initial reason is
// reserved for product creation.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason" validate:"required,stockreason,ne=initial"`
	Notes  string `json:"notes" validate:"max=500"`
}

// SetStockRequest overwrites the on-hand quantity
type SetStockRequest struct {
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
	Notes    string `json:"notes" validate:"max=500"`
}

// InventoryHandler handles HTTP requests for the stock ledger
type InventoryHandler struct {
	inventory service.InventoryService
	logger    *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// RegisterRoutes registers the ledger routes behind protect
func (h *InventoryHandler) RegisterRoutes(r chi.Router, protect ...func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(protect...)
		r.Post("/api/products/{id}/inventory/adjust", h.Adjust)
		r.Put("/api/products/{id}/inventory", h.Set)
		r.Post("/api/products/{id}/variants/{variantId}/inventory/adjust", h.AdjustVariant)
		r.Get("/api/products/{id}/inventory/logs", h.Logs)
	})
}

// Adjust handles a relative stock movement
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.inventory.Adjust(r.Context(), chi.URLParam(r, "id"), req.Delta,
		domain.InventoryReason(req.Reason), req.Notes, middleware.ActorFromContext(r.Context()))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Set handles an absolute stock count
func (h *InventoryHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req SetStockRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.inventory.Set(r.Context(), chi.URLParam(r, "id"), *req.Quantity,
		req.Notes, middleware.ActorFromContext(r.Context()))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AdjustVariant handles a relative movement on one variant
func (h *InventoryHandler) AdjustVariant(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.inventory.AdjustVariant(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "variantId"),
		req.Delta, domain.InventoryReason(req.Reason), req.Notes, middleware.ActorFromContext(r.Context()))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Logs handles the audit trail of a product, newest first
func (h *InventoryHandler) Logs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.inventory.Logs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, logs)
}
