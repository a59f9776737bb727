package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const (
	TokenTypeAdmin = "admin"

	issuer = "rifs"
)

// Claims represents admin JWT claims
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Service signs and validates admin tokens
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates JWT service
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateAdminToken issues a token for the given operator name
func (s *Service) GenerateAdminToken(subject string) (token string, expiresAt time.Time, err error) {
	now := s.now()
	expiresAt = now.Add(s.ttl)
	claims := Claims{
		Type: TokenTypeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = jwtToken.SignedString(s.secret)
	return
}

// ValidateAdminToken validates and parses an admin token
func (s *Service) ValidateAdminToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != TokenTypeAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) TTL() time.Duration { return s.ttl }
