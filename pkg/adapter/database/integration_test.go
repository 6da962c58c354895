//go:build integration

package database_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	adapterdb "github.com/damianoneill/user-service/pkg/adapter/database"
	"github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/users"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	defer provider.Close()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("user_service"),
		postgres.WithUsername("users"),
		postgres.WithPassword("users_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestIntegration_PoolAndRepository(t *testing.T) {
	connStr := startPostgres(t)
	ctx := context.Background()

	pool, err := adapterdb.NewFactory().NewPool(ctx,
		database.WithURL(connStr),
		database.WithPoolSize(1, 3),
		database.WithBootstrap(adapterdb.UsersSchema),
	)
	require.NoError(t, err)
	defer func() { assert.NoError(t, pool.Close(ctx)) }()

	require.NoError(t, pool.Ping(ctx))

	repo := adapterdb.NewUserRepository(pool)
	created, err := repo.Create(ctx, users.NewUser{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Positive(t, created.ID)

	_, err = repo.Create(ctx, users.NewUser{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, database.ErrConstraintViolation)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Username, got.Username)

	_, err = repo.Get(ctx, created.ID+1000)
	assert.ErrorIs(t, err, database.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Equal(t, int64(0), pool.Stats().Outstanding)
	assert.Equal(t, int32(3), pool.Stats().Max)
}

func TestIntegration_InitFailures(t *testing.T) {
	connStr := startPostgres(t)
	ctx := context.Background()

	t.Run("auth failure", func(t *testing.T) {
		u, err := url.Parse(connStr)
		require.NoError(t, err)
		u.User = url.UserPassword("users", "wrong")

		_, err = adapterdb.NewFactory().NewPool(ctx, database.WithURL(u.String()))
		var initErr *database.InitError
		require.True(t, errors.As(err, &initErr))
		assert.Equal(t, database.AuthFailure, initErr.Kind)
	})

	t.Run("connection refused", func(t *testing.T) {
		_, err := adapterdb.NewFactory().NewPool(ctx,
			database.WithEndpoint("127.0.0.1", 1),
			database.WithConnectTimeout(time.Second),
		)
		var initErr *database.InitError
		require.True(t, errors.As(err, &initErr))
		assert.Equal(t, database.ConnectionRefused, initErr.Kind)
	})

	t.Run("schema error", func(t *testing.T) {
		_, err := adapterdb.NewFactory().NewPool(ctx,
			database.WithURL(connStr),
			database.WithBootstrap("CREATE TABLE"),
		)
		var initErr *database.InitError
		require.True(t, errors.As(err, &initErr))
		assert.Equal(t, database.SchemaError, initErr.Kind)
	})
}
