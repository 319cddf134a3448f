package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	token, err := issuer.GenerateToken(42, "owner@fleet.com", "ROLE_OWNER")
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "owner@fleet.com", claims.Email)
	assert.Equal(t, "ROLE_OWNER", claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.GenerateToken(1, "a@fleet.com", "ROLE_ADMIN")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ValidateToken(token)
	assert.Error(t, err)
}

func TestIssuer_RejectsForeignSecret(t *testing.T) {
	token, err := NewIssuer("one", time.Hour).GenerateToken(1, "a@fleet.com", "ROLE_ADMIN")
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestIssuer_EmptySecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour).GenerateToken(1, "a@fleet.com", "ROLE_ADMIN")
	assert.ErrorIs(t, err, ErrSecretNotInitialized)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.NoError(t, VerifyPassword("admin123", hash))
	assert.Error(t, VerifyPassword("admin124", hash))
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret(32)
	require.NoError(t, err)
	b, err := GenerateSecret(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
