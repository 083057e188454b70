package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sjmc-records/internal/domain/accounts"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (accounts.User, error) {
	var u accounts.User
	err := r.db.QueryRowContext(ctx, `
		SELECT email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, accounts.NormalizeEmail(email)).Scan(&u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.User{}, accounts.ErrNotFound
		}
		return accounts.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// Upsert conserva created_at de la fila existente.
func (r *UsersRepo) Upsert(ctx context.Context, u accounts.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`, accounts.NormalizeEmail(u.Email), u.PasswordHash, created)
	return err
}
