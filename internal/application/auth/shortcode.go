package auth

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/url"
	"strings"

	"agora/internal/domain/auth"

	"golang.org/x/crypto/bcrypt"
)

// ShortCodeLength is the number of characters of a short code
const ShortCodeLength = 8

// generateShortCode returns ShortCodeLength random base32 characters
func generateShortCode() (string, error) {
	buf := make([]byte, ShortCodeLength*5/8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate short code: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// newShortCode stores a new code for target and usage, replacing the previous one, and
// returns it in clear
func (s *Service) newShortCode(ctx context.Context, target string, usage auth.ShortCodeUsage, data string) (string, error) {
	code, err := generateShortCode()
	if err != nil {
		return "", err
	}
	hashed, err := s.hash(code)
	if err != nil {
		return "", err
	}
	now := s.now()
	err = s.codes.SaveShortCode(ctx, &auth.ShortCode{
		Target:    target,
		Usage:     usage,
		CodeHash:  hashed,
		Data:      data,
		ExpiresAt: now.Add(s.config.Auth.ShortCodeDuration()),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save short code: %w", err)
	}
	return code, nil
}

// verifyCode returns the check run on the stored code before it is consumed
func (s *Service) verifyCode(code string) func(*auth.ShortCode) error {
	return func(stored *auth.ShortCode) error {
		if s.now().After(stored.ExpiresAt) {
			return fmt.Errorf("short code expired: %w", auth.ErrForbidden)
		}
		normalized := strings.ToUpper(strings.TrimSpace(code))
		if bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(normalized)) != nil {
			return fmt.Errorf("short code mismatch: %w", auth.ErrForbidden)
		}
		return nil
	}
}

// link builds a frontend URL carrying a short code
func (s *Service) link(path string, query map[string]string, fragment string) string {
	u, err := url.Parse(strings.TrimSuffix(s.config.PublicURL, "/") + path)
	if err != nil {
		u = &url.URL{Path: path}
	}
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	u.RawQuery = values.Encode()
	u.Fragment = fragment
	return u.String()
}
