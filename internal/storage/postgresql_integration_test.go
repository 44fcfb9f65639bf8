//go:build integration

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/phone-cleaner/internal/migrations"
)

func setupTestDB(t *testing.T) *Storage {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn, "test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	return storage
}

func TestStorage_KV(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, storage.CheckDatabaseReady(ctx))

	_, found, err := storage.Get(ctx, "userProfile")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, storage.Set(ctx, "userProfile", []byte(`{"filesDeletedToday":1}`)))
	require.NoError(t, storage.Set(ctx, "userProfile", []byte(`{"filesDeletedToday":2}`)))

	got, found, err := storage.Get(ctx, "userProfile")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"filesDeletedToday":2}`, string(got))

	var key string
	require.NoError(t, storage.DB.QueryRowContext(ctx, `SELECT key FROM kv_store`).Scan(&key))
	assert.Equal(t, "test:userProfile", key)
}
