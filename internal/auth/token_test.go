package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/bank-portal/internal/apperrors"
	"github.com/hongminglow/bank-portal/internal/models"
)

func TestGenerateAndParse(t *testing.T) {
	tm := NewTokenManager("secret", "bank-portal", time.Hour)
	want := Principal{ID: "u-1", Role: models.RoleEmployee, Phone: "9000000001"}

	raw, err := tm.Generate(want)
	require.NoError(t, err)

	got, err := tm.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("secret", "bank-portal", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := tm.Generate(Principal{ID: "u-1", Role: models.RoleUser})
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	other := NewTokenManager("other-secret", "bank-portal", time.Hour)
	raw, err := other.Generate(Principal{ID: "u-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	tm := NewTokenManager("secret", "bank-portal", time.Hour)
	_, err = tm.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	other := NewTokenManager("secret", "someone-else", time.Hour)
	raw, err := other.Generate(Principal{ID: "u-1", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "bank-portal", time.Hour).Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("secret", "bank-portal", time.Hour)
	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := tm.Parse(raw)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized, raw)
	}
}

func TestParseRejectsUnknownRole(t *testing.T) {
	tm := NewTokenManager("secret", "bank-portal", time.Hour)
	raw, err := tm.Generate(Principal{ID: "u-1", Role: models.Role("root")})
	require.NoError(t, err)
	_, err = tm.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	require.NotEqual(t, "pw", hash)
	require.True(t, CheckPassword(hash, "pw"))
	require.False(t, CheckPassword(hash, "nope"))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	require.False(t, ok)

	p := Principal{ID: "a", Role: models.RoleAdmin}
	got, ok := PrincipalFrom(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	require.Equal(t, p, got)
}
