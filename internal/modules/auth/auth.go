package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAdminDisabled      = errors.New("admin login is not configured")
)

// Service defines the interface for operator authentication.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	// ParseToken validates a bearer token and returns its subject.
	ParseToken(token string) (string, error)
}
