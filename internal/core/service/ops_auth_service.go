package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/adomia/account-gate/internal/core/domain"
)

// OpsAuth authenticates the single operator credential guarding the admin
// surface. The credential is a bcrypt hash supplied through configuration;
// there is no operator user store.
type OpsAuth struct {
	passwordHash string
	jwtSecret    string
	tokenTTL     time.Duration
}

func NewOpsAuth(passwordHash, jwtSecret string, tokenTTL time.Duration) *OpsAuth {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &OpsAuth{passwordHash: passwordHash, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *OpsAuth) Login(_ context.Context, password string) (string, error) {
	if password == "" || s.passwordHash == "" {
		return "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
