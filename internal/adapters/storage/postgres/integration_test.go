//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sjmc-records/internal/domain/files"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "sjmc_test",
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "testpass",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:testpass@%s:%s/sjmc_test?sslmode=disable", host, port.Port())
}

func TestIntegration_FilesRepo(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db, err := Open(dsn, Options{ConnectTimeout: 10 * time.Second})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "migrate must be idempotent")

	repo := NewFilesRepo(db, 5*time.Second)
	svc := files.NewService(repo, nil)

	created, err := svc.Create(ctx, files.CategoryPersonal, files.Input{
		Values: map[string]any{"name": "John Doe", "age": 30, "gender": "Male"},
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, files.CategoryPersonal, created.ID)
	require.NoError(t, err)
	assert.True(t, got.RegistrationDate.Equal(created.RegistrationDate))
	assert.True(t, got.ExpiryDate.Equal(created.ExpiryDate))

	updated, err := svc.Update(ctx, files.CategoryPersonal, created.ID, files.Input{Values: map[string]any{"age": 31}})
	require.NoError(t, err)
	assert.Equal(t, 31, updated.Count("age"))
	assert.Equal(t, "John Doe", updated.Text("name"))

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, files.CategoryStats{Total: 1, Weekly: 1, Active: 1}, st.Personal)

	err = repo.Create(ctx, files.PersonalSchema, created)
	assert.ErrorIs(t, err, files.ErrConflict)

	removed, err := svc.Delete(ctx, files.CategoryPersonal, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	list, err := svc.List(ctx, files.CategoryPersonal)
	require.NoError(t, err)
	assert.Empty(t, list)
}
