package database

import (
	"context"
	"path/filepath"
	"testing"

	"acadgateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestUser(email string) *models.User {
	return &models.User{
		Email:          email,
		HashedPassword: "$2a$10$fakehashfakehashfakehashfakehashfakehashfakehashfake",
		FullName:       "Test User",
		IsActive:       true,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := newTestUser("alice@example.com")
	require.NoError(t, db.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	loaded, err := db.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, user.ID, loaded.ID)
	assert.Equal(t, "alice@example.com", loaded.Email)
	assert.Equal(t, "Test User", loaded.FullName)
	assert.True(t, loaded.IsActive)
	assert.Nil(t, loaded.LastLogin)
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, newTestUser("bob@example.com")))

	err := db.CreateUser(ctx, newTestUser("bob@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateLastLogin(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := newTestUser("carol@example.com")
	require.NoError(t, db.CreateUser(ctx, user))
	require.NoError(t, db.UpdateLastLogin(ctx, user.ID))

	loaded, err := db.GetUserByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLogin)
	assert.False(t, loaded.LastLogin.IsZero())
}

func TestSystemSettingsSeededOnFirstRead(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	settings, err := db.GetSystemSettings(ctx)
	require.NoError(t, err)

	defaults := models.DefaultSystemSettings()
	assert.Equal(t, defaults.SignupEnabled, settings.SignupEnabled)
	assert.Equal(t, defaults.RequireEmailVerification, settings.RequireEmailVerification)
	assert.Equal(t, defaults.MaxWhatsAppAccountsPerUser, settings.MaxWhatsAppAccountsPerUser)
	assert.Equal(t, defaults.DefaultAIProvider, settings.DefaultAIProvider)
}

func TestUpdateSystemSettings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	settings, err := db.GetSystemSettings(ctx)
	require.NoError(t, err)

	settings.SignupEnabled = false
	settings.MaxWhatsAppAccountsPerUser = 3
	require.NoError(t, db.UpdateSystemSettings(ctx, settings))

	reloaded, err := db.GetSystemSettings(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded.SignupEnabled)
	assert.Equal(t, 3, reloaded.MaxWhatsAppAccountsPerUser)
}
