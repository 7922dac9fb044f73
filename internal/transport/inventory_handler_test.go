package transport

import (
	"context"
	"net/http"
	"testing"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/middleware"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario B over HTTP
func TestAdjustStock_ClampsAtZero(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("POST", "/api/products/prod-005/inventory/adjust", AdjustStockRequest{
		Delta:  -100,
		Reason: string(domain.ReasonSale),
		Notes:  "Counter sale",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	product := decodeBody[domain.Product](t, w)
	assert.Equal(t, 0, product.StockQuantity)
	assert.Equal(t, domain.StockStatusOutOfStock, product.StockStatus)

	w = api.admin("GET", "/api/products/prod-005/inventory/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decodeBody[[]domain.InventoryLog](t, w)
	require.Len(t, logs, 1)
	assert.Equal(t, -8, logs[0].Change)
	assert.Equal(t, 8, logs[0].PreviousQuantity)
	assert.Equal(t, "admin-1", logs[0].UserID)
	require.NotNil(t, logs[0].Notes)
	assert.Equal(t, "Counter sale", *logs[0].Notes)
}

func TestAdjustStock_InventoryRoleAllowed(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("POST", "/api/products/prod-004/inventory/adjust", api.token("clerk-7", middleware.RoleInventory),
		AdjustStockRequest{Delta: 15, Reason: string(domain.ReasonRestock)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 50, decodeBody[domain.Product](t, w).StockQuantity)

	logs, err := api.catalog.Inventory.Logs(context.Background(), "prod-004")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "clerk-7", logs[0].UserID)
}

func TestAdjustStock_Rejections(t *testing.T) {
	api := newTestAPI(t)

	cases := []struct {
		name   string
		path   string
		body   interface{}
		status int
	}{
		{
			name:   "reason reserved for creation",
			path:   "/api/products/prod-004/inventory/adjust",
			body:   AdjustStockRequest{Delta: 5, Reason: string(domain.ReasonInitial)},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown reason",
			path:   "/api/products/prod-004/inventory/adjust",
			body:   AdjustStockRequest{Delta: 5, Reason: "theft"},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing product",
			path:   "/api/products/prod-missing/inventory/adjust",
			body:   AdjustStockRequest{Delta: 5, Reason: string(domain.ReasonRestock)},
			status: http.StatusNotFound,
		},
		{
			name:   "stock tracked per variant",
			path:   "/api/products/prod-001/inventory/adjust",
			body:   AdjustStockRequest{Delta: 5, Reason: string(domain.ReasonRestock)},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown variant",
			path:   "/api/products/prod-001/variants/var-missing/inventory/adjust",
			body:   AdjustStockRequest{Delta: 5, Reason: string(domain.ReasonRestock)},
			status: http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := api.admin("POST", tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	w := api.do("POST", "/api/products/prod-004/inventory/adjust", "", AdjustStockRequest{Delta: 1, Reason: "restock"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdjustVariantStock(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("POST", "/api/products/prod-001/variants/var-001-4/inventory/adjust", AdjustStockRequest{
		Delta:  -50,
		Reason: string(domain.ReasonSale),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	product := decodeBody[domain.Product](t, w)
	variant := product.Variants[product.FindVariant("var-001-4")]
	assert.Equal(t, 0, variant.StockQuantity)
	assert.Equal(t, 750, product.StockQuantity)

	w = api.admin("GET", "/api/products/prod-001/inventory/logs", nil)
	logs := decodeBody[[]domain.InventoryLog](t, w)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].VariantID)
	assert.Equal(t, "var-001-4", *logs[0].VariantID)
	assert.Equal(t, -45, logs[0].Change)
}

func TestSetStock(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("PUT", "/api/products/prod-006/inventory", map[string]interface{}{"quantity": 40, "notes": "Cycle count"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	product := decodeBody[domain.Product](t, w)
	assert.Equal(t, 40, product.StockQuantity)
	assert.Equal(t, domain.StockStatusInStock, product.StockStatus)

	w = api.admin("GET", "/api/products/prod-006/inventory/logs", nil)
	logs := decodeBody[[]domain.InventoryLog](t, w)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ReasonAdjustment, logs[0].Reason)
	assert.Equal(t, 40, logs[0].Change)

	w = api.admin("PUT", "/api/products/prod-006/inventory", map[string]interface{}{"notes": "no quantity"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.admin("PUT", "/api/products/prod-006/inventory", map[string]interface{}{"quantity": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInventoryLogs_EmptyIsArray(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("GET", "/api/products/prod-002/inventory/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

// Feature: product-catalog, Property 14: Stock reported over HTTP never goes negative
func TestProperty_HTTPAdjustmentsStayNonNegative(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every adjust response carries a non-negative, consistently classified quantity", prop.ForAll(
		func(deltas []int) bool {
			api := newTestAPI(t)
			for _, delta := range deltas {
				w := api.admin("POST", "/api/products/prod-004/inventory/adjust", AdjustStockRequest{
					Delta:  delta,
					Reason: string(domain.ReasonAdjustment),
				})
				if w.Code != http.StatusOK {
					return false
				}
				product := decodeBody[domain.Product](t, w)
				if product.StockQuantity < 0 {
					return false
				}
				if product.StockStatus != domain.CalculateStockStatus(product.StockQuantity, product.MinStockLevel) {
					return false
				}
			}

			logs, err := api.catalog.Inventory.Logs(context.Background(), "prod-004")
			return err == nil && len(logs) == len(deltas)
		},
		gen.SliceOfN(8, gen.IntRange(-60, 40)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
