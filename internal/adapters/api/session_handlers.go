package api

import (
	"net/http"

	"agora/internal/adapters/api/middleware"
	domainAuth "agora/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// CreateAnonSession godoc
//
//	@Summary		Create an anonymous session
//	@Description	Issue a token pair carrying the anonymous role
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	domainAuth.TokenPair
//	@Failure		500	{object}	map[string]string
//	@Router			/session/anon [put]
func (h *Handler) CreateAnonSession(c *gin.Context) {
	tokens, err := h.service.CreateAnonSession(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.countSession("anon")
	c.JSON(http.StatusOK, tokens)
}

// GetSession godoc
//
//	@Summary		Decode the session claims
//	@Description	Return the claims of the bearer access token
//	@Tags			session
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	domainAuth.Claims
//	@Failure		401	{object}	map[string]string
//	@Router			/session [get]
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetClaimsFromContext(c))
}

// RefreshSession godoc
//
//	@Summary		Refresh a session
//	@Description	Exchange a token pair for a new access token bound to the same refresh token
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			tokens	body		domainAuth.TokenPair	true	"Current token pair"
//	@Success		200		{object}	domainAuth.TokenPair
//	@Failure		400		{object}	map[string]string
//	@Failure		403		{object}	map[string]string
//	@Router			/session/refresh [patch]
func (h *Handler) RefreshSession(c *gin.Context) {
	var req domainAuth.TokenPair
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.service.RefreshSession(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.countSession("refresh")
	c.JSON(http.StatusOK, tokens)
}

// CreateSession godoc
//
//	@Summary		Log in
//	@Description	Exchange an email and password for a token pair
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		domainAuth.LoginRequest	true	"Credentials"
//	@Success		200			{object}	domainAuth.TokenPair
//	@Failure		400			{object}	map[string]string
//	@Failure		403			{object}	map[string]string
//	@Failure		404			{object}	map[string]string
//	@Router			/session [put]
func (h *Handler) CreateSession(c *gin.Context) {
	var req domainAuth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.countSession("login")
	c.JSON(http.StatusOK, tokens)
}
