package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rifs/rifs-api/internal/pkg/jwt"
)

func protectedHandler(t *testing.T, jwtSvc *jwt.Service) http.Handler {
	t.Helper()
	return AdminAuth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Subject", GetAdminSubject(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAdminAuthAllowsValidToken(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)
	token, _, err := jwtSvc.GenerateAdminToken("ops")
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedHandler(t, jwtSvc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Subject") != "ops" {
		t.Fatalf("expected subject in context, got %q", w.Header().Get("X-Subject"))
	}
}

func TestAdminAuthAcceptsQueryToken(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)
	token, _, _ := jwtSvc.GenerateAdminToken("ops")

	w := httptest.NewRecorder()
	protectedHandler(t, jwtSvc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAdminAuthRejects(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)
	other := jwt.NewService("other-secret", time.Hour)
	foreign, _, _ := other.GenerateAdminToken("ops")

	tests := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage token":  "Bearer not-a-jwt",
		"wrong secret":   "Bearer " + foreign,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			protectedHandler(t, jwtSvc).ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestAdminAuthOpenWithoutService(t *testing.T) {
	w := httptest.NewRecorder()
	protectedHandler(t, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
