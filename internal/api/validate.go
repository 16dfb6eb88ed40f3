package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// requestValidator checks decoded request bodies. Field names in error
// messages come from the json tags, so clients see the keys they sent.
var requestValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest returns a client-facing message for the first
// invalid field, or "" when the request is fine.
func validateRequest(req any) string {
	err := requestValidator.Struct(req)
	if err == nil {
		return ""
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "invalid request"
	}

	e := fieldErrors[0]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field(), strings.Join(strings.Fields(e.Param()), ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color like #aabbcc", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
