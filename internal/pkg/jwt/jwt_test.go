package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := NewService("secret", time.Hour)
	token, exp, err := svc.GenerateAdminToken("ops")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry should be in the future, got %v", exp)
	}

	claims, err := svc.ValidateAdminToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "ops" || claims.Type != TokenTypeAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAdminTokenRejected(t *testing.T) {
	t.Parallel()

	svc := NewService("secret", time.Hour)
	token, _, _ := svc.GenerateAdminToken("ops")

	other := NewService("other-secret", time.Hour)
	if _, err := other.ValidateAdminToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	expired := NewService("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, _ := expired.GenerateAdminToken("ops")
	if _, err := svc.ValidateAdminToken(old); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	if _, err := svc.ValidateAdminToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
