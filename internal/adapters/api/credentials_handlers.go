package api

import (
	"net/http"

	"agora/internal/adapters/api/middleware"
	domainAuth "agora/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// CredentialsExist godoc
//
//	@Summary		Check an email
//	@Description	Answer 200 when an account uses the email, 404 otherwise
//	@Tags			credentials
//	@Security		BearerAuth
//	@Param			email	query	string	true	"Email"
//	@Success		200
//	@Failure		404
//	@Router			/credentials [head]
func (h *Handler) CredentialsExist(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	exists, err := h.service.CredentialsExist(c.Request.Context(), email)
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	if !exists {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}

// GetCredentials godoc
//
//	@Summary		Get an account
//	@Description	Return the public data of an account. Users may only read their own account unless they are administrators.
//	@Tags			credentials
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	query		string	true	"Account ID"
//	@Success		200	{object}	domainAuth.Credentials
//	@Failure		400	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/credentials [get]
func (h *Handler) GetCredentials(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id query parameter is required"})
		return
	}

	claims := middleware.GetClaimsFromContext(c)
	if claims.UserID != id && !claims.HasAnyRole(domainAuth.RoleAdmin, domainAuth.RoleSuperAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access to this account is not authorized"})
		return
	}

	creds, err := h.service.GetCredentials(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, creds)
}

// RequestRegistration godoc
//
//	@Summary		Request a registration link
//	@Description	Mail a registration short code to an unused email
//	@Tags			short-code
//	@Accept			json
//	@Security		BearerAuth
//	@Param			request	body	domainAuth.ShortCodeRequest	true	"Email and language"
//	@Success		204
//	@Failure		400	{object}	map[string]string
//	@Failure		409	{object}	map[string]string
//	@Router			/short-code/register [put]
func (h *Handler) RequestRegistration(c *gin.Context) {
	var req domainAuth.ShortCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.RequestRegistration(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	h.countShortCode(domainAuth.UsageRegister)
	c.Status(http.StatusNoContent)
}

// CompleteRegistration godoc
//
//	@Summary		Complete a registration
//	@Description	Create the account from a registration short code and return its first token pair
//	@Tags			credentials
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		domainAuth.RegisterRequest	true	"Registration"
//	@Success		201		{object}	domainAuth.TokenPair
//	@Failure		400		{object}	map[string]string
//	@Failure		403		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Router			/credentials [put]
func (h *Handler) CompleteRegistration(c *gin.Context) {
	var req domainAuth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.service.CompleteRegistration(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.countSession("registration")
	c.JSON(http.StatusCreated, tokens)
}

// RequestPasswordReset godoc
//
//	@Summary		Request a password reset link
//	@Description	Mail a password reset short code to a registered email
//	@Tags			short-code
//	@Accept			json
//	@Security		BearerAuth
//	@Param			request	body	domainAuth.ShortCodeRequest	true	"Email and language"
//	@Success		204
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/short-code/update-password [put]
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req domainAuth.ShortCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	h.countShortCode(domainAuth.UsagePasswordReset)
	c.Status(http.StatusNoContent)
}

// ResetPassword godoc
//
//	@Summary		Reset a password
//	@Description	Set a new password using a password reset short code
//	@Tags			credentials
//	@Accept			json
//	@Security		BearerAuth
//	@Param			request	body	domainAuth.ResetPasswordRequest	true	"Password reset"
//	@Success		204
//	@Failure		400	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Router			/credentials/password/reset [patch]
func (h *Handler) ResetPassword(c *gin.Context) {
	var req domainAuth.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdatePassword godoc
//
//	@Summary		Update the password
//	@Description	Change the password of the session user after checking the current one
//	@Tags			credentials
//	@Accept			json
//	@Security		BearerAuth
//	@Param			request	body	domainAuth.UpdatePasswordRequest	true	"Password update"
//	@Success		204
//	@Failure		400	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Router			/credentials/password [patch]
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req domainAuth.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := middleware.GetClaimsFromContext(c)
	if err := h.service.UpdatePassword(c.Request.Context(), claims.UserID, req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestEmailUpdate godoc
//
//	@Summary		Request an email update
//	@Description	Mail a validation short code to the new email of the session user
//	@Tags			short-code
//	@Accept			json
//	@Security		BearerAuth
//	@Param			request	body	domainAuth.ShortCodeRequest	true	"New email and language"
//	@Success		204
//	@Failure		400	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Failure		409	{object}	map[string]string
//	@Router			/short-code/update-email [put]
func (h *Handler) RequestEmailUpdate(c *gin.Context) {
	var req domainAuth.ShortCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := middleware.GetClaimsFromContext(c)
	if err := h.service.RequestEmailUpdate(c.Request.Context(), claims.UserID, req); err != nil {
		respondError(c, err)
		return
	}
	h.countShortCode(domainAuth.UsageEmailUpdate)
	c.Status(http.StatusNoContent)
}

// UpdateEmail godoc
//
//	@Summary		Validate an email update
//	@Description	Apply the pending email update carried by a validation short code
//	@Tags			credentials
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		domainAuth.UpdateEmailRequest	true	"Email validation"
//	@Success		200		{object}	domainAuth.UpdateEmailResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		403		{object}	map[string]string
//	@Router			/credentials/email [patch]
func (h *Handler) UpdateEmail(c *gin.Context) {
	var req domainAuth.UpdateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := h.service.UpdateEmail(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, domainAuth.UpdateEmailResponse{Email: email})
}
