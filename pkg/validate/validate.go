package validate

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator adapts go-playground/validator to echo's Validator interface
type RequestValidator struct {
	validator *validator.Validate
}

// New returns a RequestValidator ready to be set on an echo instance
func New() *RequestValidator {
	return &RequestValidator{validator: validator.New()}
}

// Validate validates a bound request struct against its `validate` tags
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}
