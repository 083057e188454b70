package memory

import (
	"context"
	"errors"
	"sync"

	"sjmc-records/internal/domain/accounts"
)

var errIDRequired = errors.New("id required")

type usersRepo struct {
	mu      sync.RWMutex
	byEmail map[string]accounts.User
}

func NewUsersRepo() accounts.Repository {
	return &usersRepo{byEmail: make(map[string]accounts.User)}
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (accounts.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[accounts.NormalizeEmail(email)]
	if !ok {
		return accounts.User{}, accounts.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) Upsert(ctx context.Context, u accounts.User) error {
	email := accounts.NormalizeEmail(u.Email)
	if email == "" {
		return errIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byEmail[email]; ok && !prev.CreatedAt.IsZero() {
		u.CreatedAt = prev.CreatedAt
	}
	u.Email = email
	r.byEmail[email] = u
	return nil
}
