package auth

import (
	"context"
	"errors"
)

var (
	ErrTokenEmpty   = errors.New("token is empty")
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer firma un token para un usuario ya autenticado.
type TokenIssuer interface {
	Issue(ctx context.Context, c Claims) (string, error)
}
