// Package client is the API gateway used by front ends. Every request carries
// the session's bearer token; a 401 on an authenticated request clears the
// session, fires the unauthorized hook and surfaces ErrUnauthorized.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/models/dto"
)

var (
	// ErrUnauthorized means the session was rejected and has been cleared.
	// The unauthorized hook has already redirected the user, so front ends
	// show nothing further for it.
	ErrUnauthorized = errors.New("session expired, please log in again")
	// ErrNetwork wraps transport-level failures.
	ErrNetwork = errors.New("network error")
)

// GenericMessage is shown for failures the user cannot act on.
const GenericMessage = "Something went wrong. Please try again."

// APIError is a non-2xx answer carrying the server's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// UserMessage returns the text a front end should display for err, or ""
// when nothing should be shown.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil, errors.Is(err, ErrUnauthorized):
		return ""
	case errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status < http.StatusInternalServerError:
		return apiErr.Message
	default:
		return GenericMessage
	}
}

type errorBody struct {
	Message string `json:"message"`
}

// Client talks to the bank portal API on behalf of one session.
type Client struct {
	http           *resty.Client
	session        *Session
	onUnauthorized func()
}

// Option customises a Client.
type Option func(*Client)

// WithUnauthorizedHandler sets the hook run after a 401 cleared the session,
// typically a navigation to the login view.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// New returns a client for the API at baseURL.
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(15 * time.Second),
		session:        session,
		onUnauthorized: func() {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client builds requests from.
func (c *Client) Session() *Session { return c.session }

type requestOption func(*resty.Request)

// withID fills the {id} segment of the path, escaped.
func withID(id string) requestOption {
	return func(r *resty.Request) { r.SetPathParam("id", id) }
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...requestOption) error {
	var apiErr errorBody
	req := c.http.R().SetContext(ctx).SetError(&apiErr)
	for _, opt := range opts {
		opt(req)
	}
	token := c.session.Token()
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized && token != "" {
		c.session.Clear()
		c.onUnauthorized()
		return ErrUnauthorized
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

// Register creates a customer account.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (models.User, error) {
	var out dto.UserResponse
	err := c.do(ctx, http.MethodPost, "/api/users/register", req, &out)
	return out.User, err
}

// LoginUser authenticates a customer and replaces the session with the new token.
func (c *Client) LoginUser(ctx context.Context, phone, password string) (models.User, error) {
	var out dto.UserLoginResponse
	c.session.Clear()
	if err := c.do(ctx, http.MethodPost, "/api/users/login", dto.LoginRequest{Phone: phone, Password: password}, &out); err != nil {
		return models.User{}, err
	}
	c.session.set(SessionData{Token: out.Token, Role: out.Role, Phone: out.User.Phone})
	return out.User, nil
}

// LoginEmployee authenticates a staff member and stores the token in the session.
func (c *Client) LoginEmployee(ctx context.Context, phone, password string) (models.Employee, error) {
	var out dto.EmployeeLoginResponse
	c.session.Clear()
	if err := c.do(ctx, http.MethodPost, "/api/employee/login", dto.LoginRequest{Phone: phone, Password: password}, &out); err != nil {
		return models.Employee{}, err
	}
	c.session.set(SessionData{Token: out.Token, Role: out.Role, Phone: out.Employee.Phone})
	return out.Employee, nil
}

// LoginAdmin authenticates an administrator and stores the token in the session.
func (c *Client) LoginAdmin(ctx context.Context, phone, password string) (models.Admin, error) {
	var out dto.AdminLoginResponse
	c.session.Clear()
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", dto.LoginRequest{Phone: phone, Password: password}, &out); err != nil {
		return models.Admin{}, err
	}
	c.session.set(SessionData{Token: out.Token, Role: out.Role, Phone: out.Admin.Phone})
	return out.Admin, nil
}

// Logout clears the session locally.
func (c *Client) Logout() {
	c.session.Clear()
}

// Profile returns the logged-in customer.
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var out dto.UserResponse
	err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &out)
	return out.User, err
}

// Deposit credits the logged-in customer.
func (c *Client) Deposit(ctx context.Context, amount int64) (dto.MutationResponse, error) {
	var out dto.MutationResponse
	err := c.do(ctx, http.MethodPost, "/api/users/deposit", dto.AmountRequest{Amount: amount}, &out)
	return out, err
}

// Withdraw debits the logged-in customer.
func (c *Client) Withdraw(ctx context.Context, amount int64) (dto.MutationResponse, error) {
	var out dto.MutationResponse
	err := c.do(ctx, http.MethodPost, "/api/users/withdraw", dto.AmountRequest{Amount: amount}, &out)
	return out, err
}

// Transfer sends amount to the customer registered with toPhone.
func (c *Client) Transfer(ctx context.Context, toPhone string, amount int64) (dto.TransferResponse, error) {
	var out dto.TransferResponse
	err := c.do(ctx, http.MethodPost, "/api/users/transfer", dto.TransferRequest{ToPhone: toPhone, Amount: amount}, &out)
	return out, err
}

// History returns the logged-in customer's records, newest first.
func (c *Client) History(ctx context.Context) ([]models.Transaction, error) {
	var out dto.HistoryResponse
	err := c.do(ctx, http.MethodGet, "/api/users/history", nil, &out)
	return out.Transactions, err
}

// ListUsers returns every customer (employee session).
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out dto.UsersResponse
	err := c.do(ctx, http.MethodGet, "/api/employee/users", nil, &out)
	return out.Users, err
}

// GetUser returns one customer (employee session).
func (c *Client) GetUser(ctx context.Context, id string) (models.User, error) {
	var out dto.UserResponse
	err := c.do(ctx, http.MethodGet, "/api/employee/user/{id}", nil, &out, withID(id))
	return out.User, err
}

// CreateEmployee adds a staff member (admin session).
func (c *Client) CreateEmployee(ctx context.Context, req dto.CreateEmployeeRequest) (models.Employee, error) {
	var out dto.EmployeeResponse
	err := c.do(ctx, http.MethodPost, "/api/admin/create-employee", req, &out)
	return out.Employee, err
}

// ListEmployees returns every staff member (admin session).
func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var out dto.EmployeesResponse
	err := c.do(ctx, http.MethodGet, "/api/admin/employees", nil, &out)
	return out.Employees, err
}

// DeleteEmployee removes a staff member (admin session).
func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/employee/{id}", nil, nil, withID(id))
}
