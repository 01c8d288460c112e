package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/config"
	"github.com/hongminglow/bank-portal/internal/management"
	"github.com/hongminglow/bank-portal/internal/storage/memory"
)

const (
	adminPhone    = "9000000000"
	adminPassword = "admin@123"
)

type harness struct {
	t     *testing.T
	ts    *httptest.Server
	store *memory.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithOpening(t, 0)
}

func newHarnessWithOpening(t *testing.T, initBalance int64) *harness {
	t.Helper()
	cfg := config.Config{
		Port:        "0",
		JWTSecret:   "test-secret",
		JWTIssuer:   "bank-portal-test",
		JWTTTL:      time.Hour,
		CORSOrigins: []string{"*"},
		InitBalance: initBalance,
	}
	store := memory.New()
	_, err := management.NewService(store, zap.NewNop()).SeedAdmin(context.Background(), adminPhone, adminPassword)
	require.NoError(t, err)

	ts := httptest.NewServer(NewHandler(cfg, store, zap.NewNop()))
	t.Cleanup(ts.Close)
	return &harness{t: t, ts: ts, store: store}
}

func (h *harness) do(method, path, token string, body any) (int, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.ts.URL+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// register opens an account over HTTP and, when balance is positive, books
// that much as a deposit straight into the store.
func (h *harness) register(name, phone string, balance int64) {
	h.t.Helper()
	status, body := h.do(http.MethodPost, "/api/users/register", "", map[string]any{
		"name": name, "phone": phone, "aadhaar": "123412341234", "password": "secret-pass",
	})
	require.Equal(h.t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	require.NotContains(h.t, user, "password")
	require.NotContains(h.t, user, "PasswordHash")
	if balance > 0 {
		_, err := h.store.Deposit(context.Background(), user["id"].(string), balance)
		require.NoError(h.t, err)
	}
}

func (h *harness) login(path, phone, password string) string {
	h.t.Helper()
	status, body := h.do(http.MethodPost, path, "", map[string]string{"phone": phone, "password": password})
	require.Equal(h.t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "ok", body["database"])
}

func TestAccountScenario(t *testing.T) {
	h := newHarness(t)
	h.register("Alice", "9000000001", 1000)
	h.register("Bob", "9000000002", 0)
	alice := h.login("/api/users/login", "9000000001", "secret-pass")

	status, body := h.do(http.MethodPost, "/api/users/withdraw", alice, map[string]int64{"amount": 1500})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "insufficient funds", body["message"])

	status, body = h.do(http.MethodGet, "/api/users/me", alice, nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 1000, body["user"].(map[string]any)["balance"])

	status, body = h.do(http.MethodPost, "/api/users/deposit", alice, map[string]int64{"amount": 500})
	require.Equal(t, http.StatusOK, status, body)
	require.EqualValues(t, 1500, body["balance"])

	status, body = h.do(http.MethodPost, "/api/users/transfer", alice, map[string]any{"toPhone": "9000000002", "amount": 500})
	require.Equal(t, http.StatusOK, status, body)
	require.EqualValues(t, 1000, body["balance"])
	require.Equal(t, "Bob", body["recipient"])

	bob := h.login("/api/users/login", "9000000002", "secret-pass")
	status, body = h.do(http.MethodGet, "/api/users/me", bob, nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 500, body["user"].(map[string]any)["balance"])

	status, body = h.do(http.MethodGet, "/api/users/history", alice, nil)
	require.Equal(t, http.StatusOK, status)
	txs := body["transactions"].([]any)
	require.Len(t, txs, 3)
	require.Equal(t, "transfer", txs[0].(map[string]any)["type"])
	require.Equal(t, "deposit", txs[1].(map[string]any)["type"])
	require.EqualValues(t, 500, txs[1].(map[string]any)["amount"])
	require.EqualValues(t, 1000, txs[2].(map[string]any)["amount"])
}

func TestDepositPastBalanceLimit(t *testing.T) {
	h := newHarness(t)
	h.register("Alice", "9000000001", math.MaxInt64)
	h.register("Bob", "9000000002", 10)
	alice := h.login("/api/users/login", "9000000001", "secret-pass")
	bob := h.login("/api/users/login", "9000000002", "secret-pass")

	status, body := h.do(http.MethodPost, "/api/users/deposit", alice, map[string]int64{"amount": 1})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "balance limit exceeded", body["message"])

	status, body = h.do(http.MethodPost, "/api/users/transfer", bob, map[string]any{"toPhone": "9000000001", "amount": 1})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "balance limit exceeded", body["message"])

	u, err := h.store.FindUserByPhone(context.Background(), "9000000001")
	require.NoError(t, err)
	require.Equal(t, int64(math.MaxInt64), u.Balance)
	u, err = h.store.FindUserByPhone(context.Background(), "9000000002")
	require.NoError(t, err)
	require.EqualValues(t, 10, u.Balance)
}

func TestRegisterOpeningBalance(t *testing.T) {
	h := newHarnessWithOpening(t, 250)

	status, body := h.do(http.MethodPost, "/api/users/register", "", map[string]any{
		"name": "Alice", "phone": "9000000001", "aadhaar": "123412341234", "password": "secret-pass",
	})
	require.Equal(t, http.StatusCreated, status, body)
	require.EqualValues(t, 250, body["user"].(map[string]any)["balance"])

	alice := h.login("/api/users/login", "9000000001", "secret-pass")
	status, body = h.do(http.MethodGet, "/api/users/history", alice, nil)
	require.Equal(t, http.StatusOK, status)
	txs := body["transactions"].([]any)
	require.Len(t, txs, 1)
	require.Equal(t, "deposit", txs[0].(map[string]any)["type"])
	require.EqualValues(t, 250, txs[0].(map[string]any)["amount"])

	// The client cannot pick its own opening balance.
	status, _ = h.do(http.MethodPost, "/api/users/register", "", map[string]any{
		"name": "Mallory", "phone": "9000000002", "aadhaar": "123412341234", "password": "secret-pass", "balance": 1_000_000,
	})
	require.Equal(t, http.StatusBadRequest, status)
	_, err := h.store.FindUserByPhone(context.Background(), "9000000002")
	require.Error(t, err)
}

func TestTransferErrors(t *testing.T) {
	h := newHarness(t)
	h.register("Alice", "9000000001", 100)
	alice := h.login("/api/users/login", "9000000001", "secret-pass")

	status, body := h.do(http.MethodPost, "/api/users/transfer", alice, map[string]any{"toPhone": "9000000001", "amount": 10})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "cannot transfer to your own account", body["message"])

	status, _ = h.do(http.MethodPost, "/api/users/transfer", alice, map[string]any{"toPhone": "9999999999", "amount": 10})
	require.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(http.MethodPost, "/api/users/deposit", alice, map[string]any{"amount": 0})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(http.MethodPost, "/api/users/deposit", alice, map[string]any{"amount": 10.5})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestEmployeeLifecycle(t *testing.T) {
	h := newHarness(t)
	admin := h.login("/api/admin/login", adminPhone, adminPassword)

	employee := map[string]string{"name": "Jane", "phone": "9999999999", "aadhaar": "123456789012", "password": "pw"}
	status, body := h.do(http.MethodPost, "/api/admin/create-employee", admin, employee)
	require.Equal(t, http.StatusCreated, status, body)
	created := body["employee"].(map[string]any)
	require.NotContains(t, created, "password")

	status, body = h.do(http.MethodPost, "/api/admin/create-employee", admin, employee)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "phone number already registered", body["message"])

	status, body = h.do(http.MethodGet, "/api/admin/employees", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["employees"].([]any), 1)

	h.register("Alice", "9000000001", 10)
	staff := h.login("/api/employee/login", "9999999999", "pw")
	status, body = h.do(http.MethodGet, "/api/employee/users", staff, nil)
	require.Equal(t, http.StatusOK, status)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	userID := users[0].(map[string]any)["id"].(string)

	status, body = h.do(http.MethodGet, "/api/employee/user/"+userID, staff, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Alice", body["user"].(map[string]any)["name"])

	status, _ = h.do(http.MethodGet, "/api/employee/user/missing", staff, nil)
	require.Equal(t, http.StatusNotFound, status)

	id := created["id"].(string)
	status, _ = h.do(http.MethodDelete, "/api/admin/employee/"+id, admin, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = h.do(http.MethodDelete, "/api/admin/employee/"+id, admin, nil)
	require.Equal(t, http.StatusNotFound, status)

	// The deleted employee's unexpired token no longer opens staff routes.
	status, body = h.do(http.MethodGet, "/api/employee/users", staff, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "account no longer exists", body["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)
	employee := map[string]string{"name": "Jane", "phone": "9999999999", "aadhaar": "123456789012", "password": "pw"}

	status, body := h.do(http.MethodPost, "/api/admin/create-employee", "", employee)
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotEmpty(t, body["message"])
	_, err := h.store.FindEmployeeByPhone(context.Background(), "9999999999")
	require.Error(t, err)

	for _, path := range []string{"/api/admin/employees", "/api/employee/users", "/api/users/history"} {
		status, _ := h.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, status, path)
	}
}

func TestRoleMismatchIsForbidden(t *testing.T) {
	h := newHarness(t)
	h.register("Alice", "9000000001", 10)
	alice := h.login("/api/users/login", "9000000001", "secret-pass")
	admin := h.login("/api/admin/login", adminPhone, adminPassword)

	status, _ := h.do(http.MethodGet, "/api/admin/employees", alice, nil)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(http.MethodPost, "/api/users/deposit", admin, map[string]int64{"amount": 5})
	require.Equal(t, http.StatusForbidden, status)
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)
	h.register("Alice", "9000000001", 10)

	status, body := h.do(http.MethodPost, "/api/users/login", "", map[string]string{"phone": "9000000001", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "invalid credentials", body["message"])

	status, _ = h.do(http.MethodPost, "/api/admin/login", "", map[string]string{"phone": adminPhone, "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = h.do(http.MethodPost, "/api/employee/login", "", map[string]string{"phone": "1111111111", "password": "x"})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	status, _ := h.do(http.MethodPost, "/api/users/register", "", map[string]any{"name": "A", "phone": "12", "aadhaar": "123412341234", "password": "p"})
	require.Equal(t, http.StatusBadRequest, status)

	h.register("Alice", "9000000001", 0)
	status, _ = h.do(http.MethodPost, "/api/users/register", "", map[string]any{"name": "B", "phone": "9000000001", "aadhaar": "123412341234", "password": "p"})
	require.Equal(t, http.StatusConflict, status)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "route not found", body["message"])
}
