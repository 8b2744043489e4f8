package api

import (
	"context"
	"net/http"

	"agora/internal/adapters/api/middleware"
	"agora/internal/application/auth"
	domainAuth "agora/internal/domain/auth"
	"agora/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"     // swagger embed files
	ginSwagger "github.com/swaggo/gin-swagger" // gin-swagger middleware

	_ "agora/docs" // swagger docs
)

// HealthCheck reports the state of a dependency
type HealthCheck func(ctx context.Context) error

// Handler handles HTTP requests for the auth API
type Handler struct {
	service *auth.Service
	metrics *metrics.Metrics
	checks  map[string]HealthCheck
}

// NewHandler creates a new API handler. m may be nil.
func NewHandler(service *auth.Service, m *metrics.Metrics, checks map[string]HealthCheck) *Handler {
	return &Handler{service: service, metrics: m, checks: checks}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	if h.metrics != nil {
		r.Use(h.metrics.Middleware())
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	r.GET("/ping", h.Ping)
	r.GET("/healthcheck", h.Healthcheck)

	authenticated := middleware.AuthMiddleware(h.service)

	// Session routes
	session := r.Group("/session")
	{
		session.PUT("/anon", h.CreateAnonSession)
		session.PUT("", h.CreateSession)
		session.PATCH("/refresh", h.RefreshSession)
		session.GET("", authenticated, h.GetSession)
	}

	// Credentials routes
	credentials := r.Group("/credentials", authenticated)
	{
		credentials.HEAD("", h.CredentialsExist)
		credentials.GET("", h.GetCredentials)
		credentials.PUT("", h.CompleteRegistration)
		credentials.PATCH("/password/reset", h.ResetPassword)
		credentials.PATCH("/password", middleware.RequireAuthenticated(), h.UpdatePassword)
		credentials.PATCH("/email", h.UpdateEmail)
	}

	// Short code routes
	shortCode := r.Group("/short-code", authenticated)
	{
		shortCode.PUT("/register", h.RequestRegistration)
		shortCode.PUT("/update-password", h.RequestPasswordReset)
		shortCode.PUT("/update-email", middleware.RequireAuthenticated(), h.RequestEmailUpdate)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// statusFor maps an error onto the HTTP status answered to the client
func statusFor(err error) int {
	switch domainAuth.Kind(err) {
	case domainAuth.KindUnauthorized:
		return http.StatusUnauthorized
	case domainAuth.KindForbidden:
		return http.StatusForbidden
	case domainAuth.KindNotFound:
		return http.StatusNotFound
	case domainAuth.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError answers err with its mapped status. Internal errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) countSession(kind string) {
	if h.metrics != nil {
		h.metrics.SessionIssued(kind)
	}
}

func (h *Handler) countShortCode(usage domainAuth.ShortCodeUsage) {
	if h.metrics != nil {
		h.metrics.ShortCodeSent(string(usage))
	}
}

// Ping godoc
//
//	@Summary		Ping
//	@Description	Liveness probe
//	@Tags			health
//	@Produce		plain
//	@Success		200	{string}	string	"pong"
//	@Router			/ping [get]
func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// Healthcheck godoc
//
//	@Summary		Health check
//	@Description	Reports the state of the service dependencies
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		503	{object}	map[string]string
//	@Router			/healthcheck [get]
func (h *Handler) Healthcheck(c *gin.Context) {
	report := map[string]string{"api": "up"}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			log.Warn().Err(err).Str("dependency", name).Msg("health check failed")
			report[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "up"
	}
	c.JSON(status, report)
}
