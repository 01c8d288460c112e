package storage

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/bank-portal/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInsufficientFunds indicates a conditional debit matched no balance large enough.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrBalanceOverflow indicates a credit would take a balance past MaxBalance.
var ErrBalanceOverflow = errors.New("balance limit exceeded")

// MaxBalance is the largest balance a credit may produce.
const MaxBalance int64 = math.MaxInt64

// CanCredit reports whether amount can be added to balance without passing MaxBalance.
func CanCredit(balance, amount int64) bool {
	return balance <= MaxBalance-amount
}

// UserStore persists bank customers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByPhone(ctx context.Context, phone string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// EmployeeStore persists staff accounts.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error)
	FindEmployeeByID(ctx context.Context, id string) (models.Employee, error)
	FindEmployeeByPhone(ctx context.Context, phone string) (models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// AdminStore persists administrator accounts.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error)
	FindAdminByPhone(ctx context.Context, phone string) (models.Admin, error)
}

// LedgerStore applies balance mutations. Every method changes the balance and
// appends its transaction records as one atomic unit: either all writes land
// or none do.
type LedgerStore interface {
	// Deposit credits amount and returns the written record. A credit past
	// MaxBalance fails with ErrBalanceOverflow.
	Deposit(ctx context.Context, userID string, amount int64) (models.Transaction, error)
	// Withdraw debits amount only if the balance covers it, otherwise ErrInsufficientFunds.
	Withdraw(ctx context.Context, userID string, amount int64) (models.Transaction, error)
	// Transfer debits fromID and credits toID, returning the debit and credit
	// records. It fails with ErrBalanceOverflow when toID cannot take the credit.
	Transfer(ctx context.Context, fromID, toID string, amount int64) (debit, credit models.Transaction, err error)
	// ListTransactions returns every record owned by userID, newest first.
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	EmployeeStore
	AdminStore
	LedgerStore
	Ping(ctx context.Context) error
	Close()
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// NewTransaction builds a ledger record stamped with a new ID and the current time.
func NewTransaction(userID string, kind models.TransactionType, dir models.Direction, amount, resulting int64) models.Transaction {
	return models.Transaction{
		ID:               NewID(),
		UserID:           userID,
		Type:             kind,
		Direction:        dir,
		Amount:           amount,
		ResultingBalance: resulting,
		CreatedAt:        time.Now().UTC(),
	}
}

// NewTransferPair builds the debit and credit legs of a transfer. from and to
// must carry their balances after the transfer was applied. Both legs share a
// reference and timestamp, and each names the other party's phone.
func NewTransferPair(from, to models.User, amount int64) (debit, credit models.Transaction) {
	ref := NewID()
	now := time.Now().UTC()
	debit = models.Transaction{
		ID:               NewID(),
		UserID:           from.ID,
		Type:             models.TxTransfer,
		Direction:        models.Debit,
		Amount:           amount,
		Counterparty:     to.Phone,
		Reference:        ref,
		ResultingBalance: from.Balance,
		CreatedAt:        now,
	}
	credit = models.Transaction{
		ID:               NewID(),
		UserID:           to.ID,
		Type:             models.TxTransfer,
		Direction:        models.Credit,
		Amount:           amount,
		Counterparty:     from.Phone,
		Reference:        ref,
		ResultingBalance: to.Balance,
		CreatedAt:        now,
	}
	return debit, credit
}
