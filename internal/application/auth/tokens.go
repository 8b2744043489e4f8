package auth

import (
	"fmt"
	"time"

	"agora/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// accessClaims is the payload of an access token
type accessClaims struct {
	Kind           string      `json:"kind"`
	UserID         string      `json:"userID"`
	Roles          []auth.Role `json:"roles"`
	RefreshTokenID string      `json:"refreshTokenID"`
	jwt.RegisteredClaims
}

// refreshClaims is the payload of a refresh token, its ID is the refresh token ID
type refreshClaims struct {
	Kind   string `json:"kind"`
	UserID string `json:"userID"`
	jwt.RegisteredClaims
}

// rolesFor expands a stored role into the role tags of the claims
func rolesFor(role auth.Role) []auth.Role {
	switch role {
	case auth.RoleSuperAdmin:
		return []auth.Role{auth.RoleUser, auth.RoleAdmin, auth.RoleSuperAdmin}
	case auth.RoleAdmin:
		return []auth.Role{auth.RoleUser, auth.RoleAdmin}
	case "", auth.RoleAnon:
		return []auth.Role{auth.RoleAnon}
	default:
		return []auth.Role{role}
	}
}

func (s *Service) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(s.config.Auth.JWTSecret), nil
}

func (s *Service) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Auth.JWTSecret))
}

// issue creates a new token pair for userID with a fresh refresh token ID
func (s *Service) issue(userID string, role auth.Role) (auth.TokenPair, error) {
	now := s.now()
	refreshID := ulid.Make().String()

	refresh, err := s.sign(refreshClaims{
		Kind:   kindRefresh,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        refreshID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Auth.RefreshDuration())),
		},
	})
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	access, err := s.issueAccess(userID, role, refreshID, now)
	if err != nil {
		return auth.TokenPair{}, err
	}
	return auth.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) issueAccess(userID string, role auth.Role, refreshID string, now time.Time) (string, error) {
	access, err := s.sign(accessClaims{
		Kind:           kindAccess,
		UserID:         userID,
		Roles:          rolesFor(role),
		RefreshTokenID: refreshID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Auth.AccessDuration())),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return access, nil
}

// parseAccess validates an access token. With verifyExp false only the signature is checked.
func (s *Service) parseAccess(tokenString string, verifyExp bool) (*accessClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now)}
	if !verifyExp {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid || claims.Kind != kindAccess {
		return nil, fmt.Errorf("invalid access token")
	}
	return claims, nil
}

func (s *Service) parseRefresh(tokenString string) (*refreshClaims, error) {
	claims := &refreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid || claims.Kind != kindRefresh {
		return nil, fmt.Errorf("invalid refresh token")
	}
	return claims, nil
}
