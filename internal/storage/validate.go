package storage

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/illarion/ringbearer/internal/vaulterr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// "required" accepts whitespace; vault keys and paths may not be blank
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// ValidateStruct runs struct tag validation and classifies failures as
// vaulterr.Validation under op.
func ValidateStruct(op string, s any) error {
	if err := validate.Struct(s); err != nil {
		return vaulterr.Wrap(vaulterr.Validation, op, err)
	}
	return nil
}

// ValidateEntry checks that e can be stored
func ValidateEntry(e Entry) error {
	return ValidateStruct("entry.validate", e)
}
