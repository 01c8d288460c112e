package memory

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/storage"
)

func seedUser(t *testing.T, s *Store, phone string, balance int64) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{Name: phone, Phone: phone, Balance: balance})
	require.NoError(t, err)
	return u
}

func TestCreateUserRejectsDuplicatePhone(t *testing.T) {
	s := New()
	seedUser(t, s, "9000000001", 0)
	_, err := s.CreateUser(context.Background(), models.User{Phone: "9000000001"})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestWithdrawLeavesBalanceOnShortfall(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "9000000001", 100)

	_, err := s.Withdraw(ctx, u.ID, 101)
	require.ErrorIs(t, err, storage.ErrInsufficientFunds)

	got, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, got.Balance)

	txs, err := s.ListTransactions(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestTransferWritesBothLegs(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := seedUser(t, s, "9000000001", 1000)
	b := seedUser(t, s, "9000000002", 0)

	debit, credit, err := s.Transfer(ctx, a.ID, b.ID, 400)
	require.NoError(t, err)
	require.Equal(t, models.Debit, debit.Direction)
	require.Equal(t, models.Credit, credit.Direction)
	require.Equal(t, debit.Reference, credit.Reference)
	require.Equal(t, b.Phone, debit.Counterparty)
	require.Equal(t, a.Phone, credit.Counterparty)
	require.EqualValues(t, 600, debit.ResultingBalance)
	require.EqualValues(t, 400, credit.ResultingBalance)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "9000000001", 0)
	_, err := s.Deposit(ctx, u.ID, 10)
	require.NoError(t, err)
	_, err = s.Deposit(ctx, u.ID, 20)
	require.NoError(t, err)
	_, err = s.Withdraw(ctx, u.ID, 5)
	require.NoError(t, err)

	txs, err := s.ListTransactions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.Equal(t, models.TxWithdraw, txs[0].Type)
	require.EqualValues(t, 20, txs[1].Amount)
	require.EqualValues(t, 10, txs[2].Amount)
}

func TestConcurrentTransfersConserveTotal(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := seedUser(t, s, "9000000001", 1000)
	b := seedUser(t, s, "9000000002", 1000)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _, _ = s.Transfer(ctx, a.ID, b.ID, 3)
		}()
		go func() {
			defer wg.Done()
			_, _, _ = s.Transfer(ctx, b.ID, a.ID, 2)
		}()
	}
	wg.Wait()

	ga, _ := s.FindUserByID(ctx, a.ID)
	gb, _ := s.FindUserByID(ctx, b.ID)
	require.GreaterOrEqual(t, ga.Balance, int64(0))
	require.GreaterOrEqual(t, gb.Balance, int64(0))
	require.EqualValues(t, 2000, ga.Balance+gb.Balance)
}

func TestDeleteEmployee(t *testing.T) {
	ctx := context.Background()
	s := New()
	e, err := s.CreateEmployee(ctx, models.Employee{Name: "Jane", Phone: "9999999999"})
	require.NoError(t, err)

	got, err := s.FindEmployeeByID(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane", got.Name)

	require.NoError(t, s.DeleteEmployee(ctx, e.ID))
	require.ErrorIs(t, s.DeleteEmployee(ctx, e.ID), storage.ErrNotFound)
	_, err = s.FindEmployeeByID(ctx, e.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreditsStopAtMaxBalance(t *testing.T) {
	ctx := context.Background()
	s := New()
	full := seedUser(t, s, "9000000001", math.MaxInt64-5)
	other := seedUser(t, s, "9000000002", 100)

	tx, err := s.Deposit(ctx, full.ID, 5)
	require.NoError(t, err)
	require.Equal(t, storage.MaxBalance, tx.ResultingBalance)

	_, err = s.Deposit(ctx, full.ID, 1)
	require.ErrorIs(t, err, storage.ErrBalanceOverflow)

	_, _, err = s.Transfer(ctx, other.ID, full.ID, 1)
	require.ErrorIs(t, err, storage.ErrBalanceOverflow)

	got, err := s.FindUserByID(ctx, full.ID)
	require.NoError(t, err)
	require.Equal(t, storage.MaxBalance, got.Balance)
	got, err = s.FindUserByID(ctx, other.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, got.Balance)
}

func TestCanCredit(t *testing.T) {
	require.True(t, storage.CanCredit(0, math.MaxInt64))
	require.True(t, storage.CanCredit(math.MaxInt64-1, 1))
	require.False(t, storage.CanCredit(math.MaxInt64, 1))
	require.False(t, storage.CanCredit(1, math.MaxInt64))
}
