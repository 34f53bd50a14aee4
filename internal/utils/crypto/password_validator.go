package crypto

import (
	"github.com/go-playground/validator/v10"
)

// cryptoPasswordRule validates password strength for the validator package
func cryptoPasswordRule(fl validator.FieldLevel) bool {
	return IsStrong(fl.Field().String())
}

// RegisterPasswordValidator registers the "password" validation tag.
func RegisterPasswordValidator(v *validator.Validate) error {
	return v.RegisterValidation("password", cryptoPasswordRule)
}
