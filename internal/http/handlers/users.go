package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/apperrors"
	"github.com/hongminglow/bank-portal/internal/auth"
	"github.com/hongminglow/bank-portal/internal/bank"
	"github.com/hongminglow/bank-portal/internal/http/respond"
	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/models/dto"
	"github.com/hongminglow/bank-portal/internal/storage"
	"github.com/hongminglow/bank-portal/internal/validate"
)

// UserHandler owns the customer endpoints under /api/users.
type UserHandler struct {
	store       storage.UserStore
	bank        *bank.Service
	tokens      *auth.TokenManager
	initBalance int64
	log         *zap.Logger
}

// NewUserHandler constructs the handler. New accounts are opened with
// initBalance, booked as a deposit so history accounts for it.
func NewUserHandler(store storage.UserStore, svc *bank.Service, tokens *auth.TokenManager, initBalance int64, log *zap.Logger) *UserHandler {
	return &UserHandler{store: store, bank: svc, tokens: tokens, initBalance: initBalance, log: log}
}

// Register attaches customer routes to the router.
func (h *UserHandler) Register(r *mux.Router) {
	s := r.PathPrefix("/api/users").Subrouter()
	s.HandleFunc("/register", h.handleRegister).Methods(http.MethodPost)
	s.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
	s.HandleFunc("/me", h.handleProfile).Methods(http.MethodGet)
	s.HandleFunc("/deposit", h.handleDeposit).Methods(http.MethodPost)
	s.HandleFunc("/withdraw", h.handleWithdraw).Methods(http.MethodPost)
	s.HandleFunc("/transfer", h.handleTransfer).Methods(http.MethodPost)
	s.HandleFunc("/history", h.handleHistory).Methods(http.MethodGet, http.MethodPost)
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	user, err := newUser(req)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if user.PasswordHash, err = auth.HashPassword(req.Password); err != nil {
		writeError(w, h.log, r, fmt.Errorf("hash password: %w", err))
		return
	}

	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			writeError(w, h.log, r, apperrors.ErrDuplicatePhone)
			return
		}
		writeError(w, h.log, r, fmt.Errorf("create user: %w", err))
		return
	}
	if h.initBalance > 0 {
		opening, err := h.bank.Deposit(r.Context(), created.ID, h.initBalance)
		if err != nil {
			writeError(w, h.log, r, fmt.Errorf("opening deposit for %s: %w", created.ID, err))
			return
		}
		created.Balance = opening.ResultingBalance
	}
	h.log.Info("user registered", zap.String("user_id", created.ID))
	respond.JSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "user": created})
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	user, token, err := authenticate(r.Context(), h.tokens, models.RoleUser, req, h.store.FindUserByPhone,
		func(u models.User) credentials { return credentials{id: u.ID, phone: u.Phone, passwordHash: u.PasswordHash} })
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.UserLoginResponse{Message: "login successful", Token: token, Role: models.RoleUser, User: user})
}

func (h *UserHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	user, err := h.bank.Profile(r.Context(), p.ID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.UserResponse{User: user})
}

func (h *UserHandler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	tx, err := h.bank.Deposit(r.Context(), p.ID, req.Amount)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MutationResponse{Message: "Deposit successful", Balance: tx.ResultingBalance, Transaction: tx})
}

func (h *UserHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	tx, err := h.bank.Withdraw(r.Context(), p.ID, req.Amount)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MutationResponse{Message: "Withdrawal successful", Balance: tx.ResultingBalance, Transaction: tx})
}

func (h *UserHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if err := validate.Required([2]string{"toPhone", req.ToPhone}); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	res, err := h.bank.Transfer(r.Context(), p.ID, strings.TrimSpace(req.ToPhone), req.Amount)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.TransferResponse{
		Message:     "Transfer successful",
		Balance:     res.Debit.ResultingBalance,
		Transaction: res.Debit,
		Recipient:   res.Recipient.Name,
	})
}

func (h *UserHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	txs, err := h.bank.History(r.Context(), p.ID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.HistoryResponse{Transactions: txs})
}

func newUser(req dto.RegisterRequest) (models.User, error) {
	user := models.User{
		Name:        strings.TrimSpace(req.Name),
		Phone:       strings.TrimSpace(req.Phone),
		Aadhaar:     strings.TrimSpace(req.Aadhaar),
		AccountType: strings.ToLower(strings.TrimSpace(req.AccountType)),
	}
	if err := validate.Required(
		[2]string{"name", user.Name},
		[2]string{"phone", user.Phone},
		[2]string{"aadhaar", user.Aadhaar},
		[2]string{"password", req.Password},
	); err != nil {
		return models.User{}, err
	}
	if err := validate.Phone(user.Phone); err != nil {
		return models.User{}, err
	}
	if err := validate.Aadhaar(user.Aadhaar); err != nil {
		return models.User{}, err
	}
	switch user.AccountType {
	case "":
		user.AccountType = models.AccountSavings
	case models.AccountSavings, models.AccountCurrent:
	default:
		return models.User{}, fmt.Errorf("%w: accountType must be savings or current", apperrors.ErrValidation)
	}
	return user, nil
}
