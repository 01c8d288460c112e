// Package bank holds the balance-mutating operations and the history query.
// Each mutation is delegated to the store as one atomic unit, so callers see
// a single success or failure outcome.
package bank

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/apperrors"
	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/storage"
)

// Accounts is the subset of storage the service needs.
type Accounts interface {
	storage.LedgerStore
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByPhone(ctx context.Context, phone string) (models.User, error)
}

// Service implements deposit, withdraw, transfer and history.
type Service struct {
	store Accounts
	log   *zap.Logger
}

// NewService constructs the service.
func NewService(store Accounts, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// TransferResult is the sender's and recipient's view of a completed transfer.
type TransferResult struct {
	Debit     models.Transaction
	Credit    models.Transaction
	Recipient models.User
}

// Deposit credits amount to the user.
func (s *Service) Deposit(ctx context.Context, userID string, amount int64) (models.Transaction, error) {
	if amount <= 0 {
		return models.Transaction{}, apperrors.ErrInvalidAmount
	}
	tx, err := s.store.Deposit(ctx, userID, amount)
	if err != nil {
		return models.Transaction{}, translate(err, "deposit")
	}
	s.log.Info("deposit", zap.String("user_id", userID), zap.Int64("amount", amount), zap.Int64("balance", tx.ResultingBalance))
	return tx, nil
}

// Withdraw debits amount when the balance covers it.
func (s *Service) Withdraw(ctx context.Context, userID string, amount int64) (models.Transaction, error) {
	if amount <= 0 {
		return models.Transaction{}, apperrors.ErrInvalidAmount
	}
	tx, err := s.store.Withdraw(ctx, userID, amount)
	if err != nil {
		return models.Transaction{}, translate(err, "withdraw")
	}
	s.log.Info("withdraw", zap.String("user_id", userID), zap.Int64("amount", amount), zap.Int64("balance", tx.ResultingBalance))
	return tx, nil
}

// Transfer moves amount from the user to the customer owning toPhone.
// Self transfers are rejected regardless of amount.
func (s *Service) Transfer(ctx context.Context, fromUserID, toPhone string, amount int64) (TransferResult, error) {
	recipient, err := s.store.FindUserByPhone(ctx, toPhone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return TransferResult{}, apperrors.ErrRecipientNotFound
		}
		return TransferResult{}, fmt.Errorf("transfer: find recipient: %w", err)
	}
	if recipient.ID == fromUserID {
		return TransferResult{}, apperrors.ErrSelfTransfer
	}
	if amount <= 0 {
		return TransferResult{}, apperrors.ErrInvalidAmount
	}

	debit, credit, err := s.store.Transfer(ctx, fromUserID, recipient.ID, amount)
	if err != nil {
		return TransferResult{}, translate(err, "transfer")
	}
	recipient.Balance = credit.ResultingBalance
	s.log.Info("transfer",
		zap.String("from_user_id", fromUserID),
		zap.String("to_user_id", recipient.ID),
		zap.Int64("amount", amount),
		zap.String("reference", debit.Reference),
	)
	return TransferResult{Debit: debit, Credit: credit, Recipient: recipient}, nil
}

// History returns the user's records, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

// Profile returns the user's current record.
func (s *Service) Profile(ctx context.Context, userID string) (models.User, error) {
	u, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return models.User{}, translate(err, "profile")
	}
	return u, nil
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, storage.ErrInsufficientFunds):
		return apperrors.ErrInsufficientFunds
	case errors.Is(err, storage.ErrBalanceOverflow):
		return apperrors.ErrBalanceLimit
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: account %w", op, apperrors.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
