package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for customers, staff and the ledger.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT UNIQUE NOT NULL,
			aadhaar TEXT NOT NULL,
			account_type TEXT NOT NULL DEFAULT 'savings',
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS employees (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT UNIQUE NOT NULL,
			aadhaar TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS admins (
			id TEXT PRIMARY KEY,
			phone TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			direction TEXT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			counterparty TEXT,
			reference TEXT,
			resulting_balance BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS transactions_user_created_idx ON transactions (user_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const userColumns = `id, name, phone, aadhaar, account_type, balance, password_hash, created_at`

// CreateUser inserts a new customer row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = storage.NewID()
	}
	const query = `
		INSERT INTO users (id, name, phone, aadhaar, account_type, balance, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.ID, user.Name, user.Phone, user.Aadhaar, user.AccountType, user.Balance, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, uniqueOr(err)
	}
	return created, nil
}

// FindUserByID fetches a customer by id.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindUserByPhone fetches a customer by phone number.
func (s *Store) FindUserByPhone(ctx context.Context, phone string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

// ListUsers returns all customers, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

const employeeColumns = `id, name, phone, aadhaar, password_hash, created_at`

// CreateEmployee inserts a staff row.
func (s *Store) CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	if employee.ID == "" {
		employee.ID = storage.NewID()
	}
	const query = `
		INSERT INTO employees (id, name, phone, aadhaar, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + employeeColumns
	row := s.pool.QueryRow(ctx, query, employee.ID, employee.Name, employee.Phone, employee.Aadhaar, employee.PasswordHash)
	created, err := scanEmployee(row)
	if err != nil {
		return models.Employee{}, uniqueOr(err)
	}
	return created, nil
}

// FindEmployeeByID fetches a staff member by id.
func (s *Store) FindEmployeeByID(ctx context.Context, id string) (models.Employee, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	return scanEmployee(row)
}

// FindEmployeeByPhone fetches a staff member by phone.
func (s *Store) FindEmployeeByPhone(ctx context.Context, phone string) (models.Employee, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE phone = $1`, phone)
	return scanEmployee(row)
}

// ListEmployees returns all staff, oldest first.
func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	out := make([]models.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEmployee removes a staff row.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateAdmin inserts an administrator row.
func (s *Store) CreateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error) {
	if admin.ID == "" {
		admin.ID = storage.NewID()
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO admins (id, phone, password_hash) VALUES ($1, $2, $3)
		RETURNING id, phone, password_hash, created_at`, admin.ID, admin.Phone, admin.PasswordHash)
	created, err := scanAdmin(row)
	if err != nil {
		return models.Admin{}, uniqueOr(err)
	}
	return created, nil
}

// FindAdminByPhone fetches an administrator by phone.
func (s *Store) FindAdminByPhone(ctx context.Context, phone string) (models.Admin, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, phone, password_hash, created_at FROM admins WHERE phone = $1`, phone)
	return scanAdmin(row)
}

// Deposit credits the balance and records the deposit in one transaction.
func (s *Store) Deposit(ctx context.Context, userID string, amount int64) (models.Transaction, error) {
	var out models.Transaction
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		balance, _, err := credit(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		out = storage.NewTransaction(userID, models.TxDeposit, models.Credit, amount, balance)
		return insertTransaction(ctx, tx, out)
	})
	return out, err
}

// Withdraw debits only when the balance covers amount; the check and the
// update are a single statement.
func (s *Store) Withdraw(ctx context.Context, userID string, amount int64) (models.Transaction, error) {
	var out models.Transaction
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		balance, err := debit(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		out = storage.NewTransaction(userID, models.TxWithdraw, models.Debit, amount, balance)
		return insertTransaction(ctx, tx, out)
	})
	return out, err
}

// Transfer moves amount between two customers inside one transaction. Rows
// are locked in id order so opposing transfers cannot deadlock.
func (s *Store) Transfer(ctx context.Context, fromID, toID string, amount int64) (models.Transaction, models.Transaction, error) {
	var debitTx, creditTx models.Transaction
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		ids := []string{fromID, toID}
		sort.Strings(ids)
		rows, err := tx.Query(ctx, `SELECT id FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
		if err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}
		locked := 0
		for rows.Next() {
			locked++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}
		if locked != 2 {
			return storage.ErrNotFound
		}

		fromBalance, err := debit(ctx, tx, fromID, amount)
		if err != nil {
			return err
		}
		toBalance, toPhone, err := credit(ctx, tx, toID, amount)
		if err != nil {
			return err
		}
		var fromPhone string
		if err := tx.QueryRow(ctx, `SELECT phone FROM users WHERE id = $1`, fromID).Scan(&fromPhone); err != nil {
			return fmt.Errorf("load sender: %w", err)
		}

		debitTx, creditTx = storage.NewTransferPair(
			models.User{ID: fromID, Phone: fromPhone, Balance: fromBalance},
			models.User{ID: toID, Phone: toPhone, Balance: toBalance},
			amount,
		)
		if err := insertTransaction(ctx, tx, debitTx); err != nil {
			return err
		}
		return insertTransaction(ctx, tx, creditTx)
	})
	if err != nil {
		return models.Transaction{}, models.Transaction{}, err
	}
	return debitTx, creditTx, nil
}

// ListTransactions returns the user's records, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	const query = `
		SELECT id, user_id, type, direction, amount, COALESCE(counterparty, ''), COALESCE(reference, ''), resulting_balance, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Direction, &t.Amount, &t.Counterparty, &t.Reference, &t.ResultingBalance, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func debit(ctx context.Context, tx pgx.Tx, userID string, amount int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `UPDATE users SET balance = balance - $2 WHERE id = $1 AND balance >= $2 RETURNING balance`, userID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("debit balance: %w", err)
	}
	return 0, missingOr(ctx, tx, userID, storage.ErrInsufficientFunds)
}

// credit adds amount unless the result would pass storage.MaxBalance; the
// guard keeps BIGINT overflow out of the database.
func credit(ctx context.Context, tx pgx.Tx, userID string, amount int64) (int64, string, error) {
	var (
		balance int64
		phone   string
	)
	err := tx.QueryRow(ctx, `UPDATE users SET balance = balance + $2 WHERE id = $1 AND balance <= $3 - $2 RETURNING balance, phone`,
		userID, amount, storage.MaxBalance).Scan(&balance, &phone)
	if err == nil {
		return balance, phone, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, "", fmt.Errorf("credit balance: %w", err)
	}
	return 0, "", missingOr(ctx, tx, userID, storage.ErrBalanceOverflow)
}

// missingOr explains a guarded update that matched no row: ErrNotFound when
// the account is absent, otherwise guardErr.
func missingOr(ctx context.Context, tx pgx.Tx, userID string, guardErr error) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return guardErr
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t models.Transaction) error {
	const query = `
		INSERT INTO transactions (id, user_id, type, direction, amount, counterparty, reference, resulting_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`
	if _, err := tx.Exec(ctx, query, t.ID, t.UserID, string(t.Type), string(t.Direction), t.Amount, t.Counterparty, t.Reference, t.ResultingBalance, t.CreatedAt); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func uniqueOr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return storage.ErrAlreadyExists
	}
	return err
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.Aadhaar, &user.AccountType, &user.Balance, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanEmployee(row pgx.Row) (models.Employee, error) {
	var e models.Employee
	if err := row.Scan(&e.ID, &e.Name, &e.Phone, &e.Aadhaar, &e.PasswordHash, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, storage.ErrNotFound
		}
		return models.Employee{}, err
	}
	return e, nil
}

func scanAdmin(row pgx.Row) (models.Admin, error) {
	var a models.Admin
	if err := row.Scan(&a.ID, &a.Phone, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admin{}, storage.ErrNotFound
		}
		return models.Admin{}, err
	}
	return a, nil
}
