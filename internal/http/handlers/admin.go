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

// AdminHandler owns the administrator endpoints under /api/admin.
type AdminHandler struct {
	admins storage.AdminStore
	mgmt   *management.Service
	tokens *auth.TokenManager
	log    *zap.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(admins storage.AdminStore, mgmt *management.Service, tokens *auth.TokenManager, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admins: admins, mgmt: mgmt, tokens: tokens, log: log}
}

// Register attaches admin routes to the router.
func (h *AdminHandler) Register(r *mux.Router) {
	s := r.PathPrefix("/api/admin").Subrouter()
	s.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
	s.HandleFunc("/create-employee", h.handleCreateEmployee).Methods(http.MethodPost)
	s.HandleFunc("/employees", h.handleListEmployees).Methods(http.MethodGet)
	s.HandleFunc("/employee/{id}", h.handleDeleteEmployee).Methods(http.MethodDelete)
}

func (h *AdminHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	admin, token, err := authenticate(r.Context(), h.tokens, models.RoleAdmin, req, h.admins.FindAdminByPhone,
		func(a models.Admin) credentials { return credentials{id: a.ID, phone: a.Phone, passwordHash: a.PasswordHash} })
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.AdminLoginResponse{Message: "login successful", Token: token, Role: models.RoleAdmin, Admin: admin})
}

func (h *AdminHandler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEmployeeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	created, err := h.mgmt.CreateEmployee(r.Context(), management.CreateEmployeeInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Aadhaar:  req.Aadhaar,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, dto.EmployeeResponse{Message: "Employee created successfully", Employee: created})
}

func (h *AdminHandler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.mgmt.ListEmployees(r.Context())
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.EmployeesResponse{Employees: employees})
}

func (h *AdminHandler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.mgmt.DeleteEmployee(r.Context(), id); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Employee deleted successfully"})
}
