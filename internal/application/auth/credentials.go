package auth

import (
	"context"
	"errors"
	"fmt"

	"agora/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// CredentialsExist checks whether an account uses email
func (s *Service) CredentialsExist(ctx context.Context, email string) (bool, error) {
	_, err := s.creds.GetCredentialsByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, auth.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to get credentials: %w", err)
}

// GetCredentials returns the account with the given ID
func (s *Service) GetCredentials(ctx context.Context, id string) (*auth.Credentials, error) {
	creds, err := s.creds.GetCredentials(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return creds, nil
}

// EnsureCredentials creates an account unless one already uses email. It seeds the
// administrator account at startup.
func (s *Service) EnsureCredentials(ctx context.Context, email, password string, role auth.Role) (*auth.Credentials, error) {
	if creds, err := s.creds.GetCredentialsByEmail(ctx, email); err == nil {
		return creds, nil
	} else if !errors.Is(err, auth.ErrNotFound) {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return s.createCredentials(ctx, email, password, role)
}

func (s *Service) createCredentials(ctx context.Context, email, password string, role auth.Role) (*auth.Credentials, error) {
	hashed, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	creds := &auth.Credentials{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.creds.CreateCredentials(ctx, creds); err != nil {
		return nil, fmt.Errorf("failed to create credentials: %w", err)
	}
	log.Info().Str("user_id", creds.ID).Str("role", string(role)).Msg("credentials created")
	return creds, nil
}

// RequestRegistration mails a registration link to an unused email
func (s *Service) RequestRegistration(ctx context.Context, req auth.ShortCodeRequest) error {
	exists, err := s.CredentialsExist(ctx, req.Email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("email already registered: %w", auth.ErrConflict)
	}

	code, err := s.newShortCode(ctx, req.Email, auth.UsageRegister, "")
	if err != nil {
		return err
	}
	link := s.link("/register", map[string]string{"shortCode": code}, auth.EncodeEmailFragment(req.Email))
	return s.send(ctx, req.Email, req.Lang, auth.UsageRegister, link)
}

// CompleteRegistration consumes a registration code, creates the account and logs it in
func (s *Service) CompleteRegistration(ctx context.Context, req auth.RegisterRequest) (auth.TokenPair, error) {
	exists, err := s.CredentialsExist(ctx, req.Email)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if exists {
		return auth.TokenPair{}, fmt.Errorf("email already registered: %w", auth.ErrConflict)
	}

	if _, err := s.codes.ConsumeShortCode(ctx, req.Email, auth.UsageRegister, s.verifyCode(req.ShortCode)); err != nil {
		return auth.TokenPair{}, fmt.Errorf("failed to consume short code: %w", err)
	}

	creds, err := s.createCredentials(ctx, req.Email, req.Password, auth.RoleUser)
	if err != nil {
		return auth.TokenPair{}, err
	}
	return s.issue(creds.ID, creds.Role)
}

// RequestPasswordReset mails a password reset link to a registered email
func (s *Service) RequestPasswordReset(ctx context.Context, req auth.ShortCodeRequest) error {
	creds, err := s.creds.GetCredentialsByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to get credentials: %w", err)
	}

	code, err := s.newShortCode(ctx, creds.ID, auth.UsagePasswordReset, "")
	if err != nil {
		return err
	}
	link := s.link("/reset-password", map[string]string{"userID": creds.ID, "shortCode": code}, "")
	return s.send(ctx, creds.Email, req.Lang, auth.UsagePasswordReset, link)
}

// ResetPassword consumes a password reset code and sets the new password
func (s *Service) ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) error {
	if _, err := s.codes.ConsumeShortCode(ctx, req.UserID, auth.UsagePasswordReset, s.verifyCode(req.ShortCode)); err != nil {
		return fmt.Errorf("failed to consume short code: %w", err)
	}
	return s.setPassword(ctx, req.UserID, req.Password)
}

// UpdatePassword changes the password of userID after checking the current one
func (s *Service) UpdatePassword(ctx context.Context, userID string, req auth.UpdatePasswordRequest) error {
	creds, err := s.creds.GetCredentials(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get credentials: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return fmt.Errorf("wrong password: %w", auth.ErrForbidden)
	}
	return s.setPassword(ctx, userID, req.Password)
}

func (s *Service) setPassword(ctx context.Context, userID, password string) error {
	creds, err := s.creds.GetCredentials(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get credentials: %w", err)
	}
	if creds.PasswordHash, err = s.hash(password); err != nil {
		return err
	}
	creds.UpdatedAt = s.now()
	if err := s.creds.UpdateCredentials(ctx, creds); err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	log.Info().Str("user_id", userID).Msg("password updated")
	return nil
}

// RequestEmailUpdate mails a validation link to the new email of userID
func (s *Service) RequestEmailUpdate(ctx context.Context, userID string, req auth.ShortCodeRequest) error {
	if _, err := s.creds.GetCredentials(ctx, userID); err != nil {
		return fmt.Errorf("failed to get credentials: %w", err)
	}
	exists, err := s.CredentialsExist(ctx, req.Email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("email already registered: %w", auth.ErrConflict)
	}

	code, err := s.newShortCode(ctx, userID, auth.UsageEmailUpdate, req.Email)
	if err != nil {
		return err
	}
	link := s.link("/validate-email", map[string]string{"userID": userID, "shortCode": code}, "")
	return s.send(ctx, req.Email, req.Lang, auth.UsageEmailUpdate, link)
}

// UpdateEmail consumes an email update code and applies the pending email
func (s *Service) UpdateEmail(ctx context.Context, req auth.UpdateEmailRequest) (string, error) {
	code, err := s.codes.ConsumeShortCode(ctx, req.UserID, auth.UsageEmailUpdate, s.verifyCode(req.ShortCode))
	if err != nil {
		return "", fmt.Errorf("failed to consume short code: %w", err)
	}

	creds, err := s.creds.GetCredentials(ctx, req.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to get credentials: %w", err)
	}
	creds.Email = code.Data
	creds.UpdatedAt = s.now()
	if err := s.creds.UpdateCredentials(ctx, creds); err != nil {
		return "", fmt.Errorf("failed to update credentials: %w", err)
	}
	log.Info().Str("user_id", req.UserID).Msg("email updated")
	return creds.Email, nil
}

func (s *Service) send(ctx context.Context, to string, lang auth.Lang, usage auth.ShortCodeUsage, link string) error {
	if lang == "" {
		lang = auth.LangEn
	}
	if err := s.mailer.SendShortCode(ctx, to, lang, usage, link); err != nil {
		return fmt.Errorf("failed to send short code: %w", err)
	}
	return nil
}
