package httpx

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// NewValidator returns a validator that reports field names from json tags.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidationFields converts a validator error into the shared field-level shape.
func ValidationFields(err error) *shared.ValidationError {
	out := &shared.ValidationError{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("body", "invalid request")
		return out
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out.Add(fe.Field(), "is required")
		case "email":
			out.Add(fe.Field(), "must be a valid email address")
		case "min":
			out.Add(fe.Field(), "must be at least "+fe.Param()+" characters")
		case "max":
			out.Add(fe.Field(), "must be at most "+fe.Param()+" characters")
		default:
			out.Add(fe.Field(), "is invalid")
		}
	}
	return out
}
