package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, err := tm.Issue(shared.Identity{UserID: 7, Name: "Ana", Email: "ana@molecula.local", Role: "seller"})
	require.NoError(t, err)

	identity, err := tm.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(7), identity.UserID)
	require.Equal(t, "Ana", identity.Name)
	require.Equal(t, "ana@molecula.local", identity.Email)
	require.Equal(t, "seller", identity.Role)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("secret", -time.Minute)

	token, err := tm.Issue(shared.Identity{UserID: 1, Role: "admin"})
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("first", time.Hour).Issue(shared.Identity{UserID: 1, Role: "admin"})
	require.NoError(t, err)

	_, err = NewTokenManager("second", time.Hour).Verify(token)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestTokenGarbage(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := tm.Verify(raw)
		require.ErrorIs(t, err, shared.ErrTokenInvalid)
	}
}

func TestTokenUnknownRoleRejected(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, err := tm.Issue(shared.Identity{UserID: 1, Role: "superuser"})
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}
