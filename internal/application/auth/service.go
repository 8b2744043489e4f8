package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agora/internal/config"
	"agora/internal/domain/auth"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Service implements the auth API: sessions, credentials and short codes
type Service struct {
	config   *config.Config
	creds    auth.CredentialsRepository
	codes    auth.ShortCodeRepository
	mailer   auth.Mailer
	hashCost int
	now      func() time.Time
}

// NewService creates a new authentication service
func NewService(cfg *config.Config, creds auth.CredentialsRepository, codes auth.ShortCodeRepository, mailer auth.Mailer) *Service {
	return &Service{
		config:   cfg,
		creds:    creds,
		codes:    codes,
		mailer:   mailer,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// CreateAnonSession issues a token pair for an anonymous visitor
func (s *Service) CreateAnonSession(ctx context.Context) (auth.TokenPair, error) {
	return s.issue("", auth.RoleAnon)
}

// DecodeClaims validates an access token and returns its claims
func (s *Service) DecodeClaims(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.parseAccess(accessToken, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrUnauthorized, err)
	}
	return &auth.Claims{
		UserID:         claims.UserID,
		Roles:          claims.Roles,
		RefreshTokenID: claims.RefreshTokenID,
	}, nil
}

// RefreshSession issues a new access token bound to the same refresh token. The access
// token may be expired but must carry the ID of the refresh token.
func (s *Service) RefreshSession(ctx context.Context, tokens auth.TokenPair) (auth.TokenPair, error) {
	access, err := s.parseAccess(tokens.AccessToken, false)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("%w: %v", auth.ErrForbidden, err)
	}
	refresh, err := s.parseRefresh(tokens.RefreshToken)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("%w: %v", auth.ErrForbidden, err)
	}
	if refresh.ID != access.RefreshTokenID || refresh.UserID != access.UserID {
		return auth.TokenPair{}, fmt.Errorf("%w: refresh token does not match access token", auth.ErrForbidden)
	}

	// Roles are read again so a role change applies on the next refresh.
	role := auth.RoleAnon
	if refresh.UserID != "" {
		creds, err := s.creds.GetCredentials(ctx, refresh.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				return auth.TokenPair{}, fmt.Errorf("%w: account no longer exists", auth.ErrForbidden)
			}
			return auth.TokenPair{}, fmt.Errorf("failed to get credentials: %w", err)
		}
		role = creds.Role
	}

	next, err := s.issueAccess(refresh.UserID, role, refresh.ID, s.now())
	if err != nil {
		return auth.TokenPair{}, err
	}
	return auth.TokenPair{AccessToken: next, RefreshToken: tokens.RefreshToken}, nil
}

// CreateSession exchanges an email and password for a token pair
func (s *Service) CreateSession(ctx context.Context, req auth.LoginRequest) (auth.TokenPair, error) {
	creds, err := s.creds.GetCredentialsByEmail(ctx, req.Email)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("failed to get credentials: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)) != nil {
		return auth.TokenPair{}, fmt.Errorf("wrong password: %w", auth.ErrForbidden)
	}
	log.Debug().Str("user_id", creds.ID).Msg("session created")
	return s.issue(creds.ID, creds.Role)
}

func (s *Service) hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashed), nil
}
