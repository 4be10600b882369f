// Package auth issues and validates anonymous guest tokens. A token's subject
// identifies the client across page reloads so its progress snapshot and
// history slots stay addressable.
package auth

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

// Claims carried by a guest token.
type Claims struct {
	IsGuest bool `json:"is_guest"`
	jwt.RegisteredClaims
}

// TokenConfig holds signing configuration.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration // default: 30 days
	Issuer string
}

// Manager signs and validates guest tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewManager(cfg TokenConfig) *Manager {
	if cfg.TTL == 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "tracnghiem"
	}
	return &Manager{secret: cfg.Secret, ttl: cfg.TTL, issuer: cfg.Issuer}
}

// GenerateGuestToken mints a token with a fresh random subject.
func (m *Manager) GenerateGuestToken() (token, subject string, err error) {
	subject = uuid.NewString()
	now := time.Now()
	claims := Claims{
		IsGuest: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return token, subject, err
}

// ValidateToken returns the subject carried by a valid token.
func (m *Manager) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
