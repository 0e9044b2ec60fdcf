package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", "club")

	token, err := m.Issue(Identity{ID: "member-1", Role: RoleMember}, time.Hour)
	require.NoError(t, err)

	sess, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "member-1", sess.ID)
	assert.True(t, sess.IsMember())
	assert.False(t, sess.IsAdmin())
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)
}

func TestParse_Expired(t *testing.T) {
	m := NewTokenManager("secret", "club")

	token, err := m.Issue(Identity{ID: "admin-1", Role: RoleAdmin}, -time.Minute)
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("other", "club").Issue(Identity{ID: "admin-1", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "club").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_UnknownRole(t *testing.T) {
	claims := Claims{
		Role: "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			Issuer:    "club",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "club").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	_, err := NewTokenManager("secret", "").Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
