package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/bank-portal/internal/models"
)

func TestBearerAttached(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions":[]}`))
	}))
	defer ts.Close()

	c := New(ts.URL, NewSession(SessionData{Token: "tok", Role: models.RoleUser}))
	_, err := c.History(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", got)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid or expired token"}`))
	}))
	defer ts.Close()

	var redirects atomic.Int32
	session := NewSession(SessionData{Token: "stale", Role: models.RoleUser, Phone: "9000000001"})
	c := New(ts.URL, session, WithUnauthorizedHandler(func() { redirects.Add(1) }))

	_, err := c.Deposit(context.Background(), 10)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.False(t, session.Active())
	require.Equal(t, SessionData{}, session.Snapshot())
	require.EqualValues(t, 1, redirects.Load())
	require.Empty(t, UserMessage(err))
}

func TestFailedLoginDoesNotRedirect(t *testing.T) {
	var authHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer ts.Close()

	called := false
	stale := NewSession(SessionData{Token: "stale", Role: models.RoleUser})
	c := New(ts.URL, stale, WithUnauthorizedHandler(func() { called = true }))
	_, err := c.LoginUser(context.Background(), "9000000001", "wrong")
	require.Empty(t, authHeader)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "invalid credentials", UserMessage(err))
	require.False(t, called)
}

func TestAPIErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"insufficient funds"}`))
	}))
	defer ts.Close()

	session := NewSession(SessionData{Token: "tok", Role: models.RoleUser})
	c := New(ts.URL, session)
	_, err := c.Withdraw(context.Background(), 5000)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "insufficient funds", apiErr.Message)
	require.Equal(t, "insufficient funds", UserMessage(err))
	require.True(t, session.Active())
}

func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(url, NewSession(SessionData{Token: "tok"}))
	_, err := c.Profile(context.Background())
	require.ErrorIs(t, err, ErrNetwork)
	require.Equal(t, GenericMessage, UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	require.Empty(t, UserMessage(nil))
	require.Equal(t, GenericMessage, UserMessage(&APIError{Status: 500, Message: "internal server error"}))
	require.Equal(t, GenericMessage, UserMessage(errors.New("boom")))
}

func TestIDsAreEscapedInPath(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := New(ts.URL, NewSession(SessionData{Token: "tok"}))
	_, err := c.GetUser(context.Background(), "../admin/employees")
	require.NoError(t, err)
	require.NoError(t, c.DeleteEmployee(context.Background(), "a/b c"))

	require.Equal(t, []string{
		"GET /api/employee/user/..%2Fadmin%2Femployees",
		"DELETE /api/admin/employee/a%2Fb%20c",
	}, paths)
}
