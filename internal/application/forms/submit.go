package forms

import (
	"sort"
	"strings"

	"agora/internal/domain/auth"
)

// User facing messages
const (
	MsgRequired         = "this field is required"
	MsgInvalidEmail     = "invalid email address"
	MsgPasswordMismatch = "passwords do not match"

	MsgEmailNotFound    = "no account found with the provided email"
	MsgWrongPassword    = "the provided password is not the correct one"
	MsgEmailTaken       = "an account with this email already exists"
	MsgLoginFailed      = "an unknown error occurred during session creation"
	MsgRegisterFailed   = "an unknown error occurred during registration form creation"
	MsgResetFailed      = "an unknown error occurred during password-reset form creation"
	MsgRegistration     = "registration failed, please try again later"
	MsgPasswordReset    = "password reset failed, please try again later"
	MsgPasswordUpdate   = "password update failed, please try again later"
	MsgEmailUpdate      = "email update failed, please try again later"
	MsgEmailValidation  = "cannot validate email due to unexpected error"
	MsgLinkInvalid      = "this link is invalid or has expired"
	MsgSessionForbidden = "access forbidden"
)

// Result is the outcome of a form submission
type Result struct {
	Fields    FieldErrors `json:"fields,omitempty"` // Errors shown next to fields
	Form      string      `json:"form,omitempty"`   // Banner error
	LinkError bool        `json:"linkError"`        // The short code link is unusable
}

// OK reports whether the submission succeeded
func (r Result) OK() bool {
	return len(r.Fields) == 0 && r.Form == "" && !r.LinkError
}

// Message returns every error of the result as one line. Field errors are sorted by field.
func (r Result) Message() string {
	switch {
	case r.LinkError:
		return MsgLinkInvalid
	case r.Form != "":
		return r.Form
	}
	fields := make([]string, 0, len(r.Fields))
	for field, msg := range r.Fields {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return strings.Join(fields, "; ")
}

// Invalid wraps validation errors into a result
func Invalid(fields FieldErrors) Result {
	return Result{Fields: fields}
}

func fieldError(field, msg string) Result {
	return Result{Fields: FieldErrors{field: msg}}
}

// LoginError maps a failed login
func LoginError(err error) Result {
	switch auth.Kind(err) {
	case auth.KindNotFound:
		return fieldError("email", MsgEmailNotFound)
	case auth.KindForbidden:
		return fieldError("password", MsgWrongPassword)
	default:
		return Result{Form: MsgLoginFailed}
	}
}

// RegisterRequestError maps a failed registration request
func RegisterRequestError(err error) Result {
	if auth.IsConflict(err) {
		return fieldError("email", MsgEmailTaken)
	}
	return Result{Form: MsgRegisterFailed}
}

// PasswordResetRequestError maps a failed password reset request
func PasswordResetRequestError(err error) Result {
	if auth.IsNotFound(err) {
		return fieldError("email", MsgEmailNotFound)
	}
	return Result{Form: MsgResetFailed}
}

// CompleteRegistrationError maps a failed registration completion
func CompleteRegistrationError(err error) Result {
	switch auth.Kind(err) {
	case auth.KindForbidden:
		return Result{LinkError: true}
	case auth.KindConflict:
		return Result{Form: MsgEmailTaken}
	default:
		return Result{Form: MsgRegistration}
	}
}

// CompletePasswordResetError maps a failed password reset
func CompletePasswordResetError(err error) Result {
	if auth.IsForbidden(err) {
		return Result{LinkError: true}
	}
	return Result{Form: MsgPasswordReset}
}

// UpdatePasswordError maps a failed password update. The service answers forbidden when
// the current password does not match.
func UpdatePasswordError(err error) Result {
	if auth.IsForbidden(err) {
		return fieldError("currentPassword", MsgWrongPassword)
	}
	return Result{Form: MsgPasswordUpdate}
}

// EmailUpdateRequestError maps a failed email update request
func EmailUpdateRequestError(err error) Result {
	if auth.IsConflict(err) {
		return fieldError("email", MsgEmailTaken)
	}
	return Result{Form: MsgEmailUpdate}
}

// EmailValidationError maps a failed email validation
func EmailValidationError(err error) Result {
	if auth.IsForbidden(err) {
		return Result{LinkError: true}
	}
	return Result{Form: MsgEmailValidation}
}
