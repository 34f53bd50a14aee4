// Package utils holds small helpers shared by the HTTP layer.
package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"note-vault/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
)

// NewValidator builds the request validator used by every handler. Field
// names in errors follow the json tags.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			name, _, _ = strings.Cut(f.Tag.Get("query"), ",")
		}
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := crypto.RegisterPasswordValidator(v); err != nil {
		return nil, err
	}
	return v, nil
}

// ValidationMessage flattens validator errors into "field: rule" pairs.
// Password strength failures get the human readable explanation.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "password" {
			parts = append(parts, crypto.ErrPasswordStrength.Error())
			continue
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
