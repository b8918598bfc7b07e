package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidatorAcceptsValidToken(t *testing.T) {
	validate := NewValidator(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-1",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	claims, err := validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidatorRejectsWrongSecret(t *testing.T) {
	validate := NewValidator(testSecret)
	token := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": "user-1",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	_, err := validate(token)
	assert.Error(t, err)
}

func TestValidatorRejectsExpiredToken(t *testing.T) {
	validate := NewValidator(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-1",
		"role":    "admin",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})

	_, err := validate(token)
	assert.Error(t, err)
}

func TestValidatorRejectsMissingUserID(t *testing.T) {
	validate := NewValidator(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	_, err := validate(token)
	assert.Error(t, err)
}

func TestValidatorRejectsWrongAlgorithm(t *testing.T) {
	validate := NewValidator(testSecret)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "user-1",
		"role":    "admin",
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = validate(signed)
	assert.Error(t, err)
}
