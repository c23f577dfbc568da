package users

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrueque/internal/database"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.EnsureSchema(context.Background(), db))
	return db
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	email := uuid.NewString() + "@test.local"
	user, err := svc.Register(ctx, email, "Alex", "password123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, email, user.Email)
	assert.Contains(t, user.Avatar, "ui-avatars.com")

	// Duplicate email is rejected
	_, err = svc.Register(ctx, email, "Otro Alex", "password123")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := svc.Login(ctx, email, "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, email, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, uuid.NewString()+"@test.local", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFindByEmailMissingIsNil(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepo(db)

	user, err := repo.FindByEmail(context.Background(), uuid.NewString()+"@test.local")
	require.NoError(t, err)
	assert.Nil(t, user)
}
