package admin

import (
	"context"
	"fmt"

	"github.com/rifs/rifs-api/internal/pkg/jwt"
	"github.com/rifs/rifs-api/internal/pkg/logger"
	"github.com/rifs/rifs-api/internal/pkg/password"
)

const defaultSubject = "admin"

// Service checks the operator password and issues admin tokens
type Service struct {
	passwordHash string
	jwtSvc       *jwt.Service
}

// NewService creates admin service. A nil jwtSvc or an empty hash disables login.
func NewService(passwordHash string, jwtSvc *jwt.Service) *Service {
	return &Service{
		passwordHash: passwordHash,
		jwtSvc:       jwtSvc,
	}
}

// Enabled reports whether tokens can be issued
func (s *Service) Enabled() bool {
	return s.jwtSvc != nil && s.passwordHash != ""
}

// Login verifies the password and returns a fresh token
func (s *Service) Login(ctx context.Context, username, pass string) (*LoginResponse, error) {
	if !s.Enabled() {
		return nil, ErrAdminDisabled
	}

	if username == "" {
		username = defaultSubject
	}

	if !password.Verify(pass, s.passwordHash) {
		logger.FromContext(ctx).Warn().Str("username", username).Msg("Admin login rejected")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtSvc.GenerateAdminToken(username)
	if err != nil {
		return nil, fmt.Errorf("sign admin token: %w", err)
	}

	logger.FromContext(ctx).Info().Str("username", username).Time("expires_at", expiresAt).Msg("Admin token issued")

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		ExpiresIn:   int64(s.jwtSvc.TTL().Seconds()),
	}, nil
}
