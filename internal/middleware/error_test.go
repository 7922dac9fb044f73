package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/lock"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// catalogError builds one of the errors the catalog services return
func catalogError(kind int, id string) error {
	switch kind {
	case 0:
		return fmt.Errorf("get product: %w", &domain.NotFoundError{Entity: "product", ID: id})
	case 1:
		return &domain.DuplicateKeyError{Entity: "product", Field: "sku", Value: id}
	case 2:
		return &domain.ValidationError{Field: "price", Message: "must not be negative"}
	case 3:
		return fmt.Errorf("update %s: %w", id, domain.ErrConflict)
	case 4:
		return fmt.Errorf("lock %s: %w", id, lock.ErrBusy)
	default:
		return fmt.Errorf("load %s: %w", id, errors.New("connection reset"))
	}
}

// Feature: product-catalog, Property 9: Error responses share one envelope
func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every catalog error is reported as a JSON envelope matching its status", prop.ForAll(
		func(kind int, id string) bool {
			err := catalogError(kind, id)
			w := httptest.NewRecorder()
			RespondWithDomainError(w, err, zap.NewNop())

			if w.Code != StatusForError(err) || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			if response.Error.Code != http.StatusText(w.Code) || response.Error.Message == "" {
				return false
			}
			if _, err := time.Parse(time.RFC3339, response.Error.Timestamp); err != nil {
				return false
			}
			// internal causes never reach the client
			return !strings.Contains(w.Body.String(), "connection reset")
		},
		gen.IntRange(0, 5),
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithErrorDetails_OmitsEmptyDetails(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, http.StatusUnauthorized, "token expired")
	assert.NotContains(t, w.Body.String(), `"details"`)

	w = httptest.NewRecorder()
	RespondWithErrorDetails(w, http.StatusConflict, "duplicate", map[string]interface{}{"field": "slug"})
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "slug", response.Error.Details["field"])
}

func TestRespondWithDomainError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "not found",
			err:     fmt.Errorf("adjust stock: %w", &domain.NotFoundError{Entity: "product", ID: "prod-404"}),
			status:  http.StatusNotFound,
			message: `Product with ID "prod-404" not found`,
		},
		{
			name:    "duplicate sku",
			err:     &domain.DuplicateKeyError{Entity: "product", Field: "sku", Value: "HRM-RB-100"},
			status:  http.StatusConflict,
			message: `a product with sku "HRM-RB-100" already exists`,
		},
		{
			name:    "validation",
			err:     &domain.ValidationError{Field: "stockQuantity", Message: "must not be negative"},
			status:  http.StatusBadRequest,
			message: "validation failed",
		},
		{
			name:    "version conflict",
			err:     fmt.Errorf("update product: %w", domain.ErrConflict),
			status:  http.StatusConflict,
			message: "the record was modified concurrently, retry the request",
		},
		{
			name:    "lock busy",
			err:     fmt.Errorf("lock product: %w", lock.ErrBusy),
			status:  http.StatusServiceUnavailable,
			message: "the record is busy, retry the request",
		},
		{
			name:    "audit append failure is not leaked",
			err:     fmt.Errorf("product prod-001: %w", errors.Join(domain.ErrAuditAppend, errors.New("disk full"))),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithDomainError(w, tc.err, zap.NewNop())

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.status, StatusForError(tc.err))

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.message, response.Error.Message)
			assert.Equal(t, http.StatusText(tc.status), response.Error.Code)
		})
	}
}

func TestRespondWithDomainError_ValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithDomainError(w, &domain.ValidationError{Field: "variantId", Message: "stock is tracked per variant"}, zap.NewNop())

	var response struct {
		Error struct {
			Details struct {
				ValidationErrors []ValidationError `json:"validation_errors"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Error.Details.ValidationErrors, 1)
	assert.Equal(t, "variantId", response.Error.Details.ValidationErrors[0].Field)
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("collection snapshot corrupted")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/products", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "snapshot")
}

func TestErrorHandlingMiddleware_RepanicsAbortHandler(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/products", nil))
	})
}
