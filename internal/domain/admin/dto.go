package admin

import "time"

// LoginRequest for POST /api/admin/login.
// bcrypt ignores input past 72 bytes, so longer passwords are rejected up front.
type LoginRequest struct {
	Username string `json:"username" validate:"omitempty,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginResponse carries a signed admin token
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int64     `json:"expires_in"`
}
