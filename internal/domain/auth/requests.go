package auth

// ShortCodeRequest asks the service to mail a short code
type ShortCodeRequest struct {
	Email string `json:"email" binding:"required,email,max=1024"`
	Lang  Lang   `json:"lang" binding:"omitempty,oneof=en fr"`
}

// RegisterRequest completes a registration
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=1024"`
	ShortCode string `json:"shortCode" binding:"required"`
	Password  string `json:"password" binding:"required,min=4,max=256"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	UserID    string `json:"userID" binding:"required"`
	ShortCode string `json:"shortCode" binding:"required"`
	Password  string `json:"password" binding:"required,min=4,max=256"`
}

// UpdatePasswordRequest changes the password of the session subject
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	Password        string `json:"password" binding:"required,min=4,max=256"`
}

// UpdateEmailRequest validates a pending email update
type UpdateEmailRequest struct {
	UserID    string `json:"userID" binding:"required"`
	ShortCode string `json:"shortCode" binding:"required"`
}

// UpdateEmailResponse carries the validated email
type UpdateEmailResponse struct {
	Email string `json:"email"`
}
