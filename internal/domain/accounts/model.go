package accounts

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User es una credencial de acceso al panel. Sólo se guarda el hash bcrypt.
type User struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail: los emails se comparan sin mayúsculas ni espacios.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
