package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type service struct {
	username     string
	passwordHash []byte
	jwtKey       []byte
	now          func() time.Time
}

// NewService creates the operator auth service. An empty password hash disables login.
func NewService(username, passwordHash, secret string) Service {
	return &service{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtKey:       []byte(secret),
		now:          time.Now,
	}
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	if len(s.passwordHash) == 0 || len(s.jwtKey) == 0 {
		return "", ErrAdminDisabled
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) != 1 {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := &jwt.StandardClaims{
		Subject:   s.username,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

func (s *service) ParseToken(tokenString string) (string, error) {
	if len(s.jwtKey) == 0 {
		return "", ErrAdminDisabled
	}
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
