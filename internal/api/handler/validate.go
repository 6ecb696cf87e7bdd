package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pondwatch/pondwatch/internal/api/models"
)

// validate checks request models against their struct tags. Field names
// in violations follow the JSON tags so problem details match the wire.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors converts validator violations into problem field errors.
func fieldErrors(err error) []models.FieldError {
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return []models.FieldError{{Field: "body", Message: err.Error()}}
	}

	out := make([]models.FieldError, 0, len(violations))
	for _, v := range violations {
		out = append(out, models.FieldError{
			Field:   v.Field(),
			Message: violationMessage(v),
			Code:    v.Tag(),
		})
	}
	return out
}

func violationMessage(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + v.Param() + " items"
	case "max":
		if v.Kind() == reflect.Slice {
			return "must have at most " + v.Param() + " items"
		}
		return "must be at most " + v.Param()
	case "gte":
		return "must be at least " + v.Param()
	case "lte":
		return "must be at most " + v.Param()
	default:
		return "is invalid"
	}
}
