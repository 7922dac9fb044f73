package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"motico-catalog/internal/catalog"
	"motico-catalog/internal/domain"
	"motico-catalog/internal/lock"
	"motico-catalog/internal/middleware"
	"motico-catalog/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type testAPI struct {
	t       *testing.T
	router  http.Handler
	catalog *catalog.Catalog
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	c := catalog.New(storage.NewMemoryStore(), lock.NewLocalLocker(), logger, catalog.Options{Seed: true})

	auth := middleware.AuthMiddleware(testSecret, logger)
	router := chi.NewRouter()
	NewProductHandler(c.Products, logger).RegisterRoutes(router, auth, middleware.RequireAdmin(logger))
	NewInventoryHandler(c.Inventory, logger).RegisterRoutes(router, auth,
		middleware.RequireRole(logger, middleware.RoleAdmin, middleware.RoleInventory))

	return &testAPI{t: t, router: router, catalog: c}
}

func (a *testAPI) token(userID, role string) string {
	a.t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(a.t, err)
	return token
}

// do sends a request; token may be empty for anonymous calls
func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) admin(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(method, path, a.token("admin-1", middleware.RoleAdmin), body)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[middleware.ErrorResponse](t, w).Error.Message
}

func TestListProducts_Defaults(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("GET", "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	page := decodeBody[domain.PaginatedResult[domain.Product]](t, w)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, domain.DefaultLimit, page.Limit)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasMore)
	require.Len(t, page.Data, 6)

	// newest first by default
	assert.Equal(t, "prod-006", page.Data[0].ID)
}

func TestListProducts_Filters(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("GET", "/api/products?published=true&brandId=brand-dca&sortBy=price&sortOrder=asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeBody[domain.PaginatedResult[domain.Product]](t, w)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "prod-005", page.Data[0].ID)
	assert.Equal(t, "prod-004", page.Data[1].ID)

	w = api.do("GET", "/api/products?stockStatus=low_stock", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decodeBody[domain.PaginatedResult[domain.Product]](t, w)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "prod-005", page.Data[0].ID)

	w = api.do("GET", "/api/products?minPrice=5&maxPrice=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decodeBody[domain.PaginatedResult[domain.Product]](t, w)
	assert.Equal(t, 2, page.Total)

	w = api.do("GET", "/api/products?subcategoryId=subcat-narrow-belts&search=zirconia", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decodeBody[domain.PaginatedResult[domain.Product]](t, w)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "prod-002", page.Data[0].ID)
}

func TestListProducts_OutOfRangePage(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("GET", "/api/products?page=9&limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	page := decodeBody[domain.PaginatedResult[domain.Product]](t, w)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.HasMore)
}

func TestListProducts_RejectsBadQuery(t *testing.T) {
	api := newTestAPI(t)

	for _, query := range []string{
		"page=abc",
		"page=-1",
		"limit=0x10",
		"sortOrder=sideways",
		"stockStatus=backordered",
		"published=maybe",
		"minPrice=cheap",
		"minPrice=20&maxPrice=10",
	} {
		w := api.do("GET", "/api/products?"+query, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestSearch_PublishedOnly(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("GET", "/api/products/search?q=HERMES", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	products := decodeBody[[]domain.Product](t, w)
	require.NotEmpty(t, products)
	for _, p := range products {
		assert.True(t, p.IsPublished, p.ID)
		assert.NotEqual(t, "prod-006", p.ID)
	}
}

func TestStorefrontListings(t *testing.T) {
	api := newTestAPI(t)

	ids := func(path string) []string {
		w := api.do("GET", path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		var out []string
		for _, p := range decodeBody[[]domain.Product](t, w) {
			out = append(out, p.ID)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"prod-001", "prod-004"}, ids("/api/products/featured"))
	assert.ElementsMatch(t, []string{"prod-004", "prod-005"}, ids("/api/products/new"))
	assert.ElementsMatch(t, []string{"prod-004"}, ids("/api/products/category/subcat-angle-grinders"))
	assert.ElementsMatch(t, []string{"prod-004", "prod-005"}, ids("/api/products/brand/brand-dca"))
}

func TestGetProduct(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("GET", "/api/products/prod-004", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DCA-ASM04-125", decodeBody[domain.Product](t, w).SKU)

	w = api.do("GET", "/api/products/sku/HRM-RB515-50x2000", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "prod-002", decodeBody[domain.Product](t, w).ID)

	w = api.do("GET", "/api/products/slug/hermes-spiral-grinding-sleeve", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "prod-003", decodeBody[domain.Product](t, w).ID)

	w = api.do("GET", "/api/products/prod-missing", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorMessage(t, w), "not found")

	w = api.do("GET", "/api/products/sku/NOPE", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProduct_WithRelations(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("GET", "/api/products/prod-004?include=relations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	p := decodeBody[domain.ProductWithRelations](t, w)
	assert.Equal(t, "cat-air-power-tools", p.Category.ID)
	require.NotNil(t, p.Subcategory)
	assert.Equal(t, "subcat-angle-grinders", p.Subcategory.ID)
	assert.Equal(t, "brand-dca", p.Brand.ID)

	w = api.do("GET", "/api/products/prod-missing?include=relations", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes_RequireAdminToken(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("DELETE", "/api/products/prod-001", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do("DELETE", "/api/products/prod-001", api.token("clerk-1", middleware.RoleInventory), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do("GET", "/api/dashboard/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do("GET", "/api/products/low-stock", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateProduct(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("POST", "/api/products", map[string]interface{}{
		"sku":           "TEST-001",
		"name":          "Hermes Test Belt",
		"categoryId":    "cat-abrasive-belts",
		"brandId":       "brand-hermes",
		"price":         "12.50",
		"stockQuantity": 5,
		"minStockLevel": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeBody[domain.Product](t, w)
	assert.Equal(t, "hermes-test-belt", created.Slug)
	assert.Equal(t, domain.StockStatusLowStock, created.StockStatus)
	assert.Equal(t, domain.CurrencyUSD, created.Currency)

	w = api.admin("GET", "/api/products/"+created.ID+"/inventory/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decodeBody[[]domain.InventoryLog](t, w)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ReasonInitial, logs[0].Reason)
	assert.Equal(t, 5, logs[0].NewQuantity)
	assert.Equal(t, "admin-1", logs[0].UserID)
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("POST", "/api/products", map[string]interface{}{
		"sku":        "DCA-ASM04-125",
		"name":       "Another Grinder",
		"categoryId": "cat-air-power-tools",
		"brandId":    "brand-dca",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	resp := decodeBody[middleware.ErrorResponse](t, w)
	assert.Contains(t, resp.Error.Message, "already exists")
	assert.Equal(t, "sku", resp.Error.Details["field"])
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("POST", "/api/products", map[string]interface{}{"name": "No SKU"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"sku"`)

	w = api.admin("POST", "/api/products", map[string]interface{}{
		"sku":           "NEG-1",
		"name":          "Negative",
		"categoryId":    "cat-abrasive-belts",
		"brandId":       "brand-hermes",
		"stockQuantity": -3,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("POST", "/api/products", bytes.NewBufferString(`{"sku":`))
	req.Header.Set("Authorization", "Bearer "+api.token("admin-1", middleware.RoleAdmin))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", errorMessage(t, rec))
}

func TestUpdateProduct(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("PATCH", "/api/products/prod-006", map[string]interface{}{"isPublished": true, "name": "Hermes Flap Disc"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody[domain.Product](t, w)
	assert.True(t, updated.IsPublished)
	assert.NotNil(t, updated.PublishedAt)
	assert.Equal(t, "Hermes Flap Disc", updated.Name)

	w = api.admin("PATCH", "/api/products/prod-006", map[string]interface{}{"stockQuantity": 99})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.admin("PATCH", "/api/products/prod-006", map[string]interface{}{"sku": "DCA-ASM04-125"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.admin("PATCH", "/api/products/prod-missing", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDuplicateAndToggle(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("POST", "/api/products/prod-002/duplicate", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dup := decodeBody[domain.Product](t, w)
	assert.Equal(t, "HRM-RB515-50x2000-COPY", dup.SKU)
	assert.Equal(t, 0, dup.StockQuantity)
	assert.False(t, dup.IsPublished)

	w = api.admin("POST", "/api/products/prod-002/duplicate", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "HRM-RB515-50x2000-COPY-2", decodeBody[domain.Product](t, w).SKU)

	w = api.admin("POST", "/api/products/"+dup.ID+"/toggle-published", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[domain.Product](t, w).IsPublished)

	w = api.admin("POST", "/api/products/"+dup.ID+"/toggle-featured", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[domain.Product](t, w).IsFeatured)

	w = api.admin("POST", "/api/products/prod-missing/duplicate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProducts(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("DELETE", "/api/products/prod-006", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.admin("DELETE", "/api/products/prod-006", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.admin("POST", "/api/products/bulk-delete", BulkDeleteRequest{IDs: []string{"prod-004", "prod-missing", "prod-005"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeBody[BulkDeleteResponse](t, w).Deleted)

	w = api.admin("POST", "/api/products/bulk-delete", BulkDeleteRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do("GET", "/api/products", "", nil)
	assert.Equal(t, 3, decodeBody[domain.PaginatedResult[domain.Product]](t, w).Total)
}

func TestDashboardAndStockListings(t *testing.T) {
	api := newTestAPI(t)

	w := api.admin("GET", "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody[domain.DashboardStats](t, w)
	assert.Equal(t, domain.DashboardStats{
		TotalProducts:      6,
		PublishedProducts:  5,
		LowStockProducts:   1,
		OutOfStockProducts: 1,
		TotalCategories:    6,
		TotalBrands:        2,
	}, stats)

	w = api.admin("GET", "/api/products/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	low := decodeBody[[]domain.Product](t, w)
	require.Len(t, low, 1)
	assert.Equal(t, "prod-005", low[0].ID)

	w = api.admin("GET", "/api/products/out-of-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[[]domain.Product](t, w)
	require.Len(t, out, 1)
	assert.Equal(t, "prod-006", out[0].ID)
}
