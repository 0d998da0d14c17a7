package auth

import (
	"dm-chat/errors"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Credentials is the body of signup and login.
// Passwords above 72 characters are refused to bound the KDF input.
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest only checks presence: an email that matches no account is a 404, not a 400.
type LoginRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type ProfileRequest struct {
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName" validate:"required,max=64"`
	Color     string `json:"color" validate:"omitempty,max=32"`
}

// Validate checks a request struct and returns an ErrValidation listing the failing fields.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !stderrors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	fields := lo.Map(fieldErrors, func(fe validator.FieldError, _ int) string {
		return fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag())
	})
	return fmt.Errorf("%w: invalid fields %s", errors.ErrValidation, strings.Join(fields, ", "))
}
