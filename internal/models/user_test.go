package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cretpass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cretpass", hash)

	user := &User{HashedPassword: hash}
	assert.True(t, user.CheckPassword("s3cretpass"))
	assert.False(t, user.CheckPassword("wrongpass"))
	assert.False(t, user.CheckPassword(""))
}

func TestUserHashNeverSerialized(t *testing.T) {
	hash, err := HashPassword("s3cretpass")
	require.NoError(t, err)

	data, err := json.Marshal(&User{Email: "alice@example.com", HashedPassword: hash})
	require.NoError(t, err)

	assert.NotContains(t, string(data), hash)
	assert.NotContains(t, string(data), "hashed_password")
}

func TestDefaultSystemSettings(t *testing.T) {
	defaults := DefaultSystemSettings()

	assert.Equal(t, 1, defaults.ID)
	assert.True(t, defaults.SignupEnabled)
	assert.False(t, defaults.SignupRequiresApproval)
	assert.True(t, defaults.RequireEmailVerification)
	assert.Equal(t, 1, defaults.MaxWhatsAppAccountsPerUser)
}
