package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"motico-catalog/internal/domain"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps decoded request payloads
const maxBodyBytes = 1 << 20

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so clients can match them to payload keys
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("stockreason", func(fl validator.FieldLevel) bool {
		return domain.InventoryReason(fl.Field().String()).Valid()
	})
}

// ValidateRequest runs the struct tags of v
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes a single JSON document of at most maxBodyBytes
// into v and validates it.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body holds more than one JSON value")
	}
	return ValidateRequest(v)
}

// ValidationError is one rejected field in a 400 response
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors lists the failed fields of a validator error.
// Any other error yields nil.
func FormatValidationErrors(err error) []ValidationError {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}

	result := make([]ValidationError, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		result = append(result, ValidationError{Field: fieldPath(e), Message: messageFor(e)})
	}
	return result
}

// fieldPath drops the root struct name, e.g. ProductInput.variants[0].sku -> variants[0].sku
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func messageFor(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min", "max":
		return boundMessage(e)
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	case "oneof":
		return "Value must be one of: " + e.Param()
	case "stockreason":
		return "Value must be one of: " + strings.Join(stockReasons(), " ")
	case "ne":
		return "Value must not be " + e.Param()
	default:
		return "Invalid value"
	}
}

// boundMessage words min and max by what is being measured
func boundMessage(e validator.FieldError) string {
	bound := "at least"
	if e.Tag() == "max" {
		bound = "at most"
	}
	switch e.Kind() {
	case reflect.String:
		return "Value must be " + bound + " " + e.Param() + " characters long"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "Value must contain " + bound + " " + e.Param() + " items"
	default:
		return "Value must be " + bound + " " + e.Param()
	}
}

func stockReasons() []string {
	reasons := make([]string, 0, len(domain.InventoryReasons))
	for _, r := range domain.InventoryReasons {
		reasons = append(reasons, string(r))
	}
	return reasons
}
