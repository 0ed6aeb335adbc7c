package ingest

import (
	"math"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that also understands the "finite" tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		}
		return true
	})
	return v
}
