package middleware

import (
	"net/http"
	"strings"

	"agora/internal/application/auth"
	domainAuth "agora/internal/domain/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// ClaimsContextKey is the key used to store claims in gin context
	ClaimsContextKey = "claims"
	// TokenContextKey is the key used to store the raw access token in gin context
	TokenContextKey = "accessToken"
)

// AuthMiddleware decodes the bearer access token and stores its claims in the context
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.DecodeClaims(c.Request.Context(), parts[1])
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("rejected access token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			c.Abort()
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Set(TokenContextKey, parts[1])
		c.Next()
	}
}

// RequireAuthenticated rejects anonymous sessions
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaimsFromContext(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "claims not found in context"})
			c.Abort()
			return
		}

		if claims.IsAnonymous() || claims.UserID == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "authenticated session required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRole rejects sessions carrying none of roles
func RequireRole(roles ...domainAuth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaimsFromContext(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "claims not found in context"})
			c.Abort()
			return
		}

		if !claims.HasAnyRole(roles...) {
			c.JSON(http.StatusForbidden, gin.H{"error": "required role missing"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetClaimsFromContext retrieves the claims from the gin context
func GetClaimsFromContext(c *gin.Context) *domainAuth.Claims {
	if claims, exists := c.Get(ClaimsContextKey); exists {
		if cl, ok := claims.(*domainAuth.Claims); ok {
			return cl
		}
	}
	return nil
}
