package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rifs/rifs-api/internal/pkg/jwt"
	"github.com/rifs/rifs-api/internal/pkg/response"
)

type contextKey string

const AdminSubjectKey contextKey = "admin_subject"

// AdminAuth returns middleware that requires a valid admin JWT. With a nil service
// admin routes are open.
// Browsers cannot set headers on websocket upgrades, so ?token= is accepted as well.
func AdminAuth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if jwtService == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			claims, err := jwtService.ValidateAdminToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), AdminSubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, true
		}
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetAdminSubject extracts the authenticated operator from context
func GetAdminSubject(ctx context.Context) string {
	if s, ok := ctx.Value(AdminSubjectKey).(string); ok {
		return s
	}
	return ""
}
