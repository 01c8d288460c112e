// Package memory keeps every record in process memory behind a single mutex.
// It backs local development (DATABASE_URL=memory://) and the test suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store serialises all reads and writes, so ledger operations that touch two
// accounts complete as one unit.
type Store struct {
	mu           sync.Mutex
	users        map[string]*models.User
	employees    map[string]models.Employee
	admins       map[string]models.Admin
	transactions []models.Transaction
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]*models.User),
		employees: make(map[string]models.Employee),
		admins:    make(map[string]models.Admin),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == user.Phone {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = storage.NewID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	cp := user
	s.users[user.ID] = &cp
	return user, nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return *u, nil
}

func (s *Store) FindUserByPhone(_ context.Context, phone string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == phone {
			return *u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// ListUsers returns customers ordered by creation time.
func (s *Store) ListUsers(context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := lo.Map(lo.Values(s.users), func(u *models.User, _ int) models.User { return *u })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateEmployee(_ context.Context, employee models.Employee) (models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.Phone == employee.Phone {
			return models.Employee{}, storage.ErrAlreadyExists
		}
	}
	if employee.ID == "" {
		employee.ID = storage.NewID()
	}
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}
	s.employees[employee.ID] = employee
	return employee, nil
}

func (s *Store) FindEmployeeByID(_ context.Context, id string) (models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return models.Employee{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) FindEmployeeByPhone(_ context.Context, phone string) (models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.Phone == phone {
			return e, nil
		}
	}
	return models.Employee{}, storage.ErrNotFound
}

func (s *Store) ListEmployees(context.Context) ([]models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := lo.Values(s.employees)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.employees, id)
	return nil
}

func (s *Store) CreateAdmin(_ context.Context, admin models.Admin) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Phone == admin.Phone {
			return models.Admin{}, storage.ErrAlreadyExists
		}
	}
	if admin.ID == "" {
		admin.ID = storage.NewID()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	s.admins[admin.ID] = admin
	return admin, nil
}

func (s *Store) FindAdminByPhone(_ context.Context, phone string) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Phone == phone {
			return a, nil
		}
	}
	return models.Admin{}, storage.ErrNotFound
}

// AdminCount reports how many admin records exist.
func (s *Store) AdminCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.admins)
}

func (s *Store) Deposit(_ context.Context, userID string, amount int64) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.Transaction{}, storage.ErrNotFound
	}
	if !storage.CanCredit(u.Balance, amount) {
		return models.Transaction{}, storage.ErrBalanceOverflow
	}
	u.Balance += amount
	tx := storage.NewTransaction(u.ID, models.TxDeposit, models.Credit, amount, u.Balance)
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

func (s *Store) Withdraw(_ context.Context, userID string, amount int64) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.Transaction{}, storage.ErrNotFound
	}
	if u.Balance < amount {
		return models.Transaction{}, storage.ErrInsufficientFunds
	}
	u.Balance -= amount
	tx := storage.NewTransaction(u.ID, models.TxWithdraw, models.Debit, amount, u.Balance)
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

// Transfer checks both accounts and the sender's balance before touching
// either, so a failure leaves both balances unchanged.
func (s *Store) Transfer(_ context.Context, fromID, toID string, amount int64) (models.Transaction, models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, ok1 := s.users[fromID]
	to, ok2 := s.users[toID]
	if !ok1 || !ok2 {
		return models.Transaction{}, models.Transaction{}, storage.ErrNotFound
	}
	if from.Balance < amount {
		return models.Transaction{}, models.Transaction{}, storage.ErrInsufficientFunds
	}
	if !storage.CanCredit(to.Balance, amount) {
		return models.Transaction{}, models.Transaction{}, storage.ErrBalanceOverflow
	}
	from.Balance -= amount
	to.Balance += amount
	debit, credit := storage.NewTransferPair(*from, *to, amount)
	s.transactions = append(s.transactions, debit, credit)
	return debit, credit, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := lo.Filter(s.transactions, func(tx models.Transaction, _ int) bool { return tx.UserID == userID })
	// Appends are chronological; reverse for newest first.
	return lo.Reverse(owned), nil
}
