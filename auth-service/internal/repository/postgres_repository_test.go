package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/food_delivery/auth-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *Repository {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%d user=testuser password=testpass dbname=testdb sslmode=disable", host, port.Int())
	repo, err := NewRepository(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("./migrations"))
	return repo
}

func TestCreateAndGetUser(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	u := &domain.User{Login: "bob", PasswordHash: "$2a$hash", Email: "bob@example.com", Username: "Bob"}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	got, err := repo.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)
	assert.Equal(t, "$2a$hash", got.PasswordHash)
	assert.Equal(t, "Bob", got.Username)
}

func TestCreateUser_Duplicate(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &domain.User{Login: "bob", PasswordHash: "x", Email: "a@b.c"}))
	err := repo.CreateUser(ctx, &domain.User{Login: "bob", PasswordHash: "y", Email: "d@e.f"})
	assert.ErrorIs(t, err, ErrLoginTaken)
}

func TestGetUser_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
