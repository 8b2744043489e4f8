package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"agora/internal/domain/auth"

	"github.com/go-playground/validator/v10"
)

// Field bounds enforced by the auth service
const (
	EmailMin    = 3
	EmailMax    = 1024
	PasswordMin = 4
	PasswordMax = 256
)

// FieldErrors maps a field name to the message shown next to it
type FieldErrors map[string]string

// Login is the login screen form
type Login struct {
	Email    string `json:"email" validate:"required,min=3,max=1024,email"`
	Password string `json:"password" validate:"required,min=4,max=256"`
}

// EmailRequest is the registration and password reset request form
type EmailRequest struct {
	Email string    `json:"email" validate:"required,min=3,max=1024,email"`
	Lang  auth.Lang `json:"lang" validate:"omitempty,oneof=en fr"`
}

// NewPassword is the form completing a registration or a password reset
type NewPassword struct {
	Password             string `json:"password" validate:"required,min=4,max=256"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,min=4,max=256,eqfield=Password"`
}

// UpdatePassword is the account page password form
type UpdatePassword struct {
	CurrentPassword      string `json:"currentPassword" validate:"required,min=4,max=256"`
	Password             string `json:"password" validate:"required,min=4,max=256"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,min=4,max=256,eqfield=Password"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field of form, as on submit. It returns nil when the form is valid.
func Validate(form interface{}) FieldErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, exists := out[fe.Field()]; !exists {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

// ValidateField checks a single field of form, as on blur. It returns an empty string when
// the field is valid.
func ValidateField(form interface{}, field string) string {
	return Validate(form)[field]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "email":
		return MsgInvalidEmail
	case "eqfield":
		return MsgPasswordMismatch
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("invalid value (%s)", fe.Tag())
	}
}
