package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/sqcb-service/internal/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Flexible ids validate as their numeric value, or as missing
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if f, ok := field.Interface().(types.FlexUint64); ok && f.Valid {
			return f.Value
		}
		return nil
	}, types.FlexUint64{})

	return v
}

// ValidateStruct checks validate tags and reports the first failure as a ValidationError
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return types.NewValidationError("Invalid input: %v", err)
	}

	fe := fieldErrors[0]
	switch fe.Tag() {
	case "required":
		return types.NewValidationError("%s is required", fe.Field())
	case "email":
		return types.NewValidationError("%s must be a valid email address", fe.Field())
	case "min", "max":
		return types.NewValidationError("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return types.NewValidationError("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
