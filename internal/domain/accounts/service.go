package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sjmc-records/internal/ports/auth"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo    Repository
	issuer  auth.TokenIssuer
	now     func() time.Time
	cost    int
	compare func(hash, password []byte) error

	dummyOnce sync.Once
	dummy     []byte
}

func NewService(repo Repository, issuer auth.TokenIssuer) *Service {
	return &Service{
		repo:    repo,
		issuer:  issuer,
		now:     time.Now,
		cost:    bcrypt.DefaultCost,
		compare: bcrypt.CompareHashAndPassword,
	}
}

// dummyHash se compara cuando el usuario no existe, para que el tiempo de
// respuesta no revele qué emails están registrados.
func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("sjmc-records-dummy-password"), s.cost)
	})
	return s.dummy
}

type LoginResult struct {
	Token string
	Email string
}

// Login valida email/password contra el hash guardado y emite un token.
// Usuario inexistente y password incorrecto devuelven el mismo error.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = s.compare(s.dummyHash(), []byte(password))
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := s.compare([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if s.issuer == nil {
		return LoginResult{}, errors.New("token issuer not configured")
	}
	token, err := s.issuer.Issue(ctx, auth.Claims{UserID: u.Email, Email: u.Email})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Email: u.Email}, nil
}

// Register guarda (o reemplaza) una credencial a partir del password en claro.
func (s *Service) Register(ctx context.Context, email, password string) error {
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return err
	}
	return s.EnsureUser(ctx, email, hash)
}

// EnsureUser guarda una credencial con un hash ya calculado (config, seed).
func (s *Service) EnsureUser(ctx context.Context, email, passwordHash string) error {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return fmt.Errorf("%w: password hash is not bcrypt", ErrInvalidInput)
	}
	return s.repo.Upsert(ctx, User{Email: email, PasswordHash: passwordHash, CreatedAt: s.now().UTC()})
}

func HashPassword(password string, cost int) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("%w: password must have at least 8 characters", ErrInvalidInput)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
