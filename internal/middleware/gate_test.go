package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/auth"
	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/storage"
)

var testRules = []Rule{
	{Path: "/api/admin/login", Public: true},
	{Path: "/api/admin/", Role: models.RoleAdmin},
	{Path: "/api/users/", Role: models.RoleUser},
}

func newGate(t *testing.T) (*Gate, *auth.TokenManager, *bool) {
	t.Helper()
	tokens := auth.NewTokenManager("secret", "test", time.Hour)
	return NewGate(tokens, testRules, zap.NewNop()), tokens, new(bool)
}

func serve(g *Gate, called *bool, path, authz string) (*httptest.ResponseRecorder, *auth.Principal) {
	var seen *auth.Principal
	h := g.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if p, ok := auth.PrincipalFrom(r.Context()); ok {
			seen = &p
		}
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func token(t *testing.T, tm *auth.TokenManager, role models.Role) string {
	t.Helper()
	raw, err := tm.Generate(auth.Principal{ID: "p-1", Role: role})
	require.NoError(t, err)
	return "Bearer " + raw
}

func TestGateMissingHeader(t *testing.T) {
	g, _, called := newGate(t)
	rec, _ := serve(g, called, "/api/admin/employees", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, *called)
}

func TestGateMalformedHeader(t *testing.T) {
	g, tm, called := newGate(t)
	raw, err := tm.Generate(auth.Principal{ID: "p-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	for _, h := range []string{raw, "Basic " + raw, "Bearer ", "Bearer not-a-jwt"} {
		rec, _ := serve(g, called, "/api/admin/employees", h)
		require.Equal(t, http.StatusUnauthorized, rec.Code, h)
	}
	require.False(t, *called)
}

func TestGateWrongRole(t *testing.T) {
	g, tm, called := newGate(t)
	rec, _ := serve(g, called, "/api/admin/employees", token(t, tm, models.RoleUser))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, *called)
}

func TestGateAllowsMatchingRole(t *testing.T) {
	g, tm, called := newGate(t)
	rec, p := serve(g, called, "/api/users/deposit", token(t, tm, models.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *called)
	require.NotNil(t, p)
	require.Equal(t, "p-1", p.ID)
	require.Equal(t, models.RoleUser, p.Role)
}

func TestGatePublicAndUnlisted(t *testing.T) {
	g, _, called := newGate(t)
	rec, _ := serve(g, called, "/api/admin/login", "")
	require.Equal(t, http.StatusOK, rec.Code)

	*called = false
	rec, _ = serve(g, called, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *called)
}

func TestGateRequireLive(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "test", time.Hour)
	var checkErr error
	var checked []string
	g := NewGate(tokens, testRules, zap.NewNop()).RequireLive(models.RoleUser, func(_ context.Context, id string) error {
		checked = append(checked, id)
		return checkErr
	})
	called := new(bool)

	rec, _ := serve(g, called, "/api/users/history", token(t, tokens, models.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"p-1"}, checked)

	*called = false
	checkErr = storage.ErrNotFound
	rec, _ = serve(g, called, "/api/users/history", token(t, tokens, models.RoleUser))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"message":"account no longer exists"}`, rec.Body.String())
	require.False(t, *called)

	checkErr = errors.New("connection refused")
	rec, _ = serve(g, called, "/api/users/history", token(t, tokens, models.RoleUser))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.False(t, *called)

	// Roles without a check are not looked up.
	rec, _ = serve(g, called, "/api/admin/employees", token(t, tokens, models.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, checked, 3)
}
