package transport

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"motico-catalog/internal/domain"
	"motico-catalog/internal/middleware"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// decodeRequest decodes and validates a JSON body, writing the 400 response
// itself when the payload is unusable.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// parseListQuery reads pagination and filter parameters. Absent values
// keep their zero value so the service applies its defaults.
func parseListQuery(q url.Values) (domain.PaginationParams, domain.ProductFilter, error) {
	var (
		params domain.PaginationParams
		filter domain.ProductFilter
		err    error
	)

	if params.Page, err = intParam(q, "page"); err != nil {
		return params, filter, err
	}
	if params.Limit, err = intParam(q, "limit"); err != nil {
		return params, filter, err
	}
	params.SortBy = q.Get("sortBy")
	params.SortOrder = domain.SortOrder(strings.ToLower(q.Get("sortOrder")))

	filter.Search = strings.TrimSpace(q.Get("search"))
	filter.CategoryID = q.Get("categoryId")
	filter.SubcategoryID = q.Get("subcategoryId")
	filter.BrandID = q.Get("brandId")

	if s := q.Get("stockStatus"); s != "" {
		filter.StockStatus = domain.StockStatus(s)
		if !filter.StockStatus.Valid() {
			return params, filter, &domain.ValidationError{Field: "stockStatus", Message: "must be one of in_stock, low_stock, out_of_stock"}
		}
	}
	if filter.IsPublished, err = boolParam(q, "published"); err != nil {
		return params, filter, err
	}
	if filter.IsFeatured, err = boolParam(q, "featured"); err != nil {
		return params, filter, err
	}
	if filter.PriceMin, err = decimalParam(q, "minPrice"); err != nil {
		return params, filter, err
	}
	if filter.PriceMax, err = decimalParam(q, "maxPrice"); err != nil {
		return params, filter, err
	}
	if filter.PriceMin != nil && filter.PriceMax != nil && filter.PriceMin.GreaterThan(*filter.PriceMax) {
		return params, filter, &domain.ValidationError{Field: "minPrice", Message: "must not exceed maxPrice"}
	}

	return params, filter, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Message: "must be an integer"}
	}
	return v, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &domain.ValidationError{Field: name, Message: "must be true or false"}
	}
	return &v, nil
}

func decimalParam(q url.Values, name string) (*decimal.Decimal, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, &domain.ValidationError{Field: name, Message: "must be a decimal number"}
	}
	return &v, nil
}
