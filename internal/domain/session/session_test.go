package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestDecodeToken(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		token := signTestToken(t, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserID: 42,
			Name:   "Ada",
			Email:  "ada@example.com",
			Role:   RoleAdmin,
		})

		claims, err := DecodeToken(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "Ada", claims.Name)
		assert.Equal(t, RoleAdmin, claims.Role)
	})

	t.Run("role defaults to user", func(t *testing.T) {
		token := signTestToken(t, &Claims{UserID: 7})
		claims, err := DecodeToken(token)
		require.NoError(t, err)
		assert.Equal(t, RoleUser, claims.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signTestToken(t, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
			UserID: 42,
		})
		_, err := DecodeToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		token := signTestToken(t, &Claims{Name: "nobody"})
		_, err := DecodeToken(token)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := DecodeToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestFromToken(t *testing.T) {
	issued := time.Now().Add(-time.Minute).Truncate(time.Second)
	token := signTestToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 9,
		Name:   "Grace",
		Email:  "grace@example.com",
		Role:   RoleUser,
	})

	sess, err := FromToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(9), sess.UserID)
	assert.Equal(t, "Grace", sess.Name)
	assert.Equal(t, token, sess.Token)
	assert.False(t, sess.Blocked)
	assert.True(t, sess.IssuedAt.Equal(issued))
}

func TestSession_IsAdmin(t *testing.T) {
	assert.False(t, (*Session)(nil).IsAdmin())
	assert.False(t, (&Session{Role: RoleUser}).IsAdmin())
	assert.True(t, (&Session{Role: RoleAdmin}).IsAdmin())
}
