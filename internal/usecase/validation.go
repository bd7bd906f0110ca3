package usecase

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/grocerybutler/backend/internal/domain"
)

// NewValidator returns a validator that knows the "category" tag and reports
// fields by their json names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Register custom validation rules
	_ = validate.RegisterValidation("category", validateCategory)

	return validate
}

func validateCategory(fl validator.FieldLevel) bool {
	return domain.Category(fl.Field().String()).Valid()
}

// MalformedFromValidation converts validator output into one MalformedInputError per field
func MalformedFromValidation(meal string, err error) []domain.MalformedInputError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []domain.MalformedInputError{{Meal: meal, Field: "", Reason: err.Error()}}
	}

	out := make([]domain.MalformedInputError, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, domain.MalformedInputError{
			Meal:   meal,
			Field:  fieldPath(e.Namespace()),
			Reason: validationReason(e),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validationReason(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "category":
		return fmt.Sprintf("unknown category %q", e.Value())
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}

// checkIngredient covers what struct tags cannot express
func checkIngredient(item domain.Ingredient) (field, reason string, ok bool) {
	if math.IsInf(item.Quantity, 0) || math.IsNaN(item.Quantity) {
		return "quantity", "must be a finite number", false
	}
	if Normalize(item.Name) == "" {
		return "ingredient", "has no letters or digits", false
	}
	if domain.ParseUnit(item.Unit) == "" {
		return "unit", "is required", false
	}
	return "", "", true
}
