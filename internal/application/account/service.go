package account

import (
	"context"
	"fmt"

	"agora/internal/application/forms"
	"agora/internal/application/session"
	"agora/internal/domain/auth"

	"github.com/rs/zerolog/log"
)

// API is the part of the auth service the account flows call
type API interface {
	CredentialsExist(ctx context.Context, accessToken, email string) (bool, error)
	GetCredentials(ctx context.Context, accessToken, userID string) (*auth.Credentials, error)
	RequestRegistration(ctx context.Context, accessToken string, req auth.ShortCodeRequest) error
	CompleteRegistration(ctx context.Context, accessToken string, req auth.RegisterRequest) (auth.TokenPair, error)
	RequestPasswordReset(ctx context.Context, accessToken string, req auth.ShortCodeRequest) error
	ResetPassword(ctx context.Context, accessToken string, req auth.ResetPasswordRequest) error
	UpdatePassword(ctx context.Context, accessToken string, req auth.UpdatePasswordRequest) error
	RequestEmailUpdate(ctx context.Context, accessToken string, req auth.ShortCodeRequest) error
	UpdateEmail(ctx context.Context, accessToken string, req auth.UpdateEmailRequest) (auth.UpdateEmailResponse, error)
}

// Service runs the account flows on behalf of one session
type Service struct {
	session *session.Controller
	api     API
}

// NewService creates the account flows for the session held by ctrl
func NewService(ctrl *session.Controller, api API) *Service {
	return &Service{session: ctrl, api: api}
}

// Login authenticates the session with the given credentials
func (s *Service) Login(ctx context.Context, form forms.Login) forms.Result {
	if errs := forms.Validate(form); errs != nil {
		return forms.Invalid(errs)
	}
	err := s.session.Authenticate(ctx, auth.LoginRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		log.Debug().Err(err).Msg("login failed")
		return forms.LoginError(err)
	}
	return forms.Result{}
}

// Logout drops the user session for a new anonymous one
func (s *Service) Logout(ctx context.Context) error {
	if _, err := s.session.ResetSession(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// RequestRegistration mails a registration link to the form email
func (s *Service) RequestRegistration(ctx context.Context, form forms.EmailRequest) forms.Result {
	if errs := forms.Validate(form); errs != nil {
		return forms.Invalid(errs)
	}
	req := auth.ShortCodeRequest{Email: form.Email, Lang: langOrDefault(form.Lang)}
	err := s.session.RetrySession(func(ctx context.Context, accessToken string) error {
		return s.api.RequestRegistration(ctx, accessToken, req)
	})(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("registration request failed")
		return forms.RegisterRequestError(err)
	}
	return forms.Result{}
}

// CompleteRegistration creates the account from a registration link and switches the
// session to it. fragment is the email carried by the link.
func (s *Service) CompleteRegistration(ctx context.Context, fragment, shortCode string, form forms.NewPassword) forms.Result {
	email, err := auth.DecodeEmailFragment(fragment)
	if err != nil || shortCode == "" {
		return forms.Result{LinkError: true}
	}
	if errs := forms.Validate(form); errs != nil {
		return forms.Invalid(errs)
	}

	req := auth.RegisterRequest{Email: email, ShortCode: shortCode, Password: form.Password}
	tokens, err := session.Retry(s.session, func(ctx context.Context, accessToken string) (auth.TokenPair, error) {
		return s.api.CompleteRegistration(ctx, accessToken, req)
	})(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("registration failed")
		return forms.CompleteRegistrationError(err)
	}

	if err := s.session.Adopt(ctx, tokens); err != nil {
		log.Error().Err(err).Msg("failed to switch to the registered session")
		return forms.Result{Form: forms.MsgRegistration}
	}
	log.Info().Str("email", email).Msg("account registered")
	return forms.Result{}
}

// RequestPasswordReset mails a password reset link to the form email
func (s *Service) RequestPasswordReset(ctx context.Context, form forms.EmailRequest) forms.Result {
	if errs := forms.Validate(form); errs != nil {
		return forms.Invalid(errs)
	}
	req := auth.ShortCodeRequest{Email: form.Email, Lang: langOrDefault(form.Lang)}
	err := s.session.RetrySession(func(ctx context.Context, accessToken string) error {
		return s.api.RequestPasswordReset(ctx, accessToken, req)
	})(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("password reset request failed")
		return forms.PasswordResetRequestError(err)
	}
	return forms.Result{}
}

// CompletePasswordReset sets a new password from a password reset link
func (s *Service) CompletePasswordReset(ctx context.Context, userID, shortCode string, form forms.NewPassword) forms.Result {
	if userID == "" || shortCode == "" {
		return forms.Result{LinkError: true}
	}
	if errs := forms.Validate(form); errs != nil {
		return forms.Invalid(errs)
	}
	req := auth.ResetPasswordRequest{UserID: userID, ShortCode: shortCode, Password: form.Password}
	err := s.session.RetrySession(func(ctx context.Context, accessToken string) error {
		return s.api.ResetPassword(ctx, accessToken, req)
	})(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("password reset failed")
		return forms.CompletePasswordResetError(err)
	}
	return forms.Result{}
}

// UpdatePassword changes the password of the authenticated user
func (s *Service) UpdatePassword(ctx context.Context, form forms.UpdatePassword) forms.Result {
	if !s.session.Authenticated() {
		return forms.Result{Form: forms.MsgSessionForbidden}
	}
	if errs := forms.Validate(form); errs != nil {
		return forms.Invalid(errs)
	}
	req := auth.UpdatePasswordRequest{CurrentPassword: form.CurrentPassword, Password: form.Password}
	err := s.session.RetrySession(func(ctx context.Context, accessToken string) error {
		return s.api.UpdatePassword(ctx, accessToken, req)
	})(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("password update failed")
		return forms.UpdatePasswordError(err)
	}
	return forms.Result{}
}

// RequestEmailUpdate mails a validation link to the new email of the authenticated user
func (s *Service) RequestEmailUpdate(ctx context.Context, form forms.EmailRequest) forms.Result {
	if !s.session.Authenticated() {
		return forms.Result{Form: forms.MsgSessionForbidden}
	}
	if errs := forms.Validate(form); errs != nil {
		return forms.Invalid(errs)
	}
	req := auth.ShortCodeRequest{Email: form.Email, Lang: langOrDefault(form.Lang)}
	err := s.session.RetrySession(func(ctx context.Context, accessToken string) error {
		return s.api.RequestEmailUpdate(ctx, accessToken, req)
	})(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("email update request failed")
		return forms.EmailUpdateRequestError(err)
	}
	return forms.Result{}
}

// ValidateEmail applies the email update carried by a validation link and returns the new email
func (s *Service) ValidateEmail(ctx context.Context, userID, shortCode string) (string, forms.Result) {
	if userID == "" || shortCode == "" {
		return "", forms.Result{LinkError: true}
	}
	req := auth.UpdateEmailRequest{UserID: userID, ShortCode: shortCode}
	resp, err := session.Retry(s.session, func(ctx context.Context, accessToken string) (auth.UpdateEmailResponse, error) {
		return s.api.UpdateEmail(ctx, accessToken, req)
	})(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("email validation failed")
		return "", forms.EmailValidationError(err)
	}
	return resp.Email, forms.Result{}
}

// CurrentUser returns the credentials of the authenticated user
func (s *Service) CurrentUser(ctx context.Context) (*auth.Credentials, error) {
	claims := s.session.Claims()
	if claims == nil {
		return nil, session.ErrNotSynced
	}
	if claims.IsAnonymous() || claims.UserID == "" {
		return nil, fmt.Errorf("current user: %w", auth.ErrForbidden)
	}
	return session.Retry(s.session, func(ctx context.Context, accessToken string) (*auth.Credentials, error) {
		return s.api.GetCredentials(ctx, accessToken, claims.UserID)
	})(ctx)
}

// EmailExists checks whether an account already uses email
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return session.Retry(s.session, func(ctx context.Context, accessToken string) (bool, error) {
		return s.api.CredentialsExist(ctx, accessToken, email)
	})(ctx)
}

func langOrDefault(lang auth.Lang) auth.Lang {
	if lang == "" {
		return auth.LangEn
	}
	return lang
}
