package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/auth"
	"github.com/hongminglow/bank-portal/internal/http/respond"
	"github.com/hongminglow/bank-portal/internal/management"
	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/models/dto"
	"github.com/hongminglow/bank-portal/internal/storage"
)

// EmployeeHandler owns the staff endpoints under /api/employee.
type EmployeeHandler struct {
	employees storage.EmployeeStore
	mgmt      *management.Service
	tokens    *auth.TokenManager
	log       *zap.Logger
}

// NewEmployeeHandler constructs the handler.
func NewEmployeeHandler(employees storage.EmployeeStore, mgmt *management.Service, tokens *auth.TokenManager, log *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, mgmt: mgmt, tokens: tokens, log: log}
}

// Register attaches employee routes to the router.
func (h *EmployeeHandler) Register(r *mux.Router) {
	s := r.PathPrefix("/api/employee").Subrouter()
	s.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
	s.HandleFunc("/users", h.handleListUsers).Methods(http.MethodGet)
	s.HandleFunc("/user/{id}", h.handleGetUser).Methods(http.MethodGet)
}

func (h *EmployeeHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	employee, token, err := authenticate(r.Context(), h.tokens, models.RoleEmployee, req, h.employees.FindEmployeeByPhone,
		func(e models.Employee) credentials { return credentials{id: e.ID, phone: e.Phone, passwordHash: e.PasswordHash} })
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.EmployeeLoginResponse{Message: "login successful", Token: token, Role: models.RoleEmployee, Employee: employee})
}

func (h *EmployeeHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.mgmt.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.UsersResponse{Users: users})
}

func (h *EmployeeHandler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.mgmt.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.UserResponse{User: user})
}
