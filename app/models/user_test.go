package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("jane", "jane@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, "jane", user.Name)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, ROLE_USER, user.Role)
	assert.Equal(t, STATUS_ACTIVE, user.Status)
	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, CheckPasswordHash("secret123", user.Password))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("jane", "not-an-email", "secret123")
	assert.Error(t, err)

	_, err = CreateUser("jane", "jane@example.com", "short")
	assert.Error(t, err)

	_, err = CreateUser("ab", "jane@example.com", "secret123")
	assert.Error(t, err)
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))
	assert.False(t, CheckPasswordHash("correct horse", "not-a-hash"))
}
