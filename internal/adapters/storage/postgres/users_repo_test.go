package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"sjmc-records/internal/domain/accounts"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRepo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUsersRepo(db)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, created_at)")).
		WithArgs("admin@sjmc.com", "$2a$hash", created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("admin@sjmc.com").
		WillReturnRows(sqlmock.NewRows([]string{"email", "password_hash", "created_at"}).AddRow("admin@sjmc.com", "$2a$hash", created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("ghost@sjmc.com").
		WillReturnRows(sqlmock.NewRows([]string{"email", "password_hash", "created_at"}))

	require.NoError(t, repo.Upsert(context.Background(), accounts.User{Email: " Admin@sjmc.com", PasswordHash: "$2a$hash", CreatedAt: created}))

	u, err := repo.GetByEmail(context.Background(), "ADMIN@sjmc.com")
	require.NoError(t, err)
	assert.Equal(t, "$2a$hash", u.PasswordHash)

	_, err = repo.GetByEmail(context.Background(), "ghost@sjmc.com")
	assert.ErrorIs(t, err, accounts.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
