package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Address:   "0x1111111111111111111111111111111111111111",
		TokenID:   "tok-1",
		TokenType: TokenTypeAccess,
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(testSecret)

	claims, err := svc.ValidateToken(signToken(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", claims.Address)
	assert.Equal(t, "tok-1", claims.TokenID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService("other-secret")

	_, err := svc.ValidateToken(signToken(t, validClaims()))
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewAuthService(testSecret)
	c := validClaims()
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	_, err := svc.ValidateToken(signToken(t, c))
	assert.Error(t, err)
}

func TestValidateTokenMissingAddress(t *testing.T) {
	svc := NewAuthService(testSecret)
	c := validClaims()
	c.Address = ""

	_, err := svc.ValidateToken(signToken(t, c))
	assert.Error(t, err)
}

func TestValidateTokenWrongType(t *testing.T) {
	svc := NewAuthService(testSecret)
	c := validClaims()
	c.TokenType = "refresh"

	_, err := svc.ValidateToken(signToken(t, c))
	assert.Error(t, err)
}
