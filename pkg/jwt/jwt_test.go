package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager("", time.Hour, "boluntik")
	require.Error(t, err)
}

func TestGenerateValidate(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour, "boluntik")
	require.NoError(t, err)

	token, err := m.Generate("u1", "Alice", []string{"volunteer"})
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Alice", claims.DisplayName)
	assert.Equal(t, []string{"volunteer"}, claims.Roles)
	assert.Equal(t, "boluntik", claims.Issuer)
}

func TestValidate_Expired(t *testing.T) {
	m, err := NewManager("test-secret", -time.Minute, "boluntik")
	require.NoError(t, err)

	token, err := m.Generate("u1", "Alice", nil)
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer, err := NewManager("secret-a", time.Hour, "boluntik")
	require.NoError(t, err)
	verifier, err := NewManager("secret-b", time.Hour, "boluntik")
	require.NoError(t, err)

	token, err := issuer.Generate("u1", "Alice", nil)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour, "boluntik")
	require.NoError(t, err)

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsUnsignedAlg(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour, "boluntik")
	require.NoError(t, err)

	token := gojwt.NewWithClaims(gojwt.SigningMethodNone, &Claims{UserID: "u1"})
	signed, err := token.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_SubjectFallback(t *testing.T) {
	// Tokens minted by older platform versions carry the subject only.
	secret := []byte("test-secret")
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	m, err := NewManager("test-secret", time.Hour, "boluntik")
	require.NoError(t, err)

	claims, err := m.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}
