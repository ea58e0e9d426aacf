package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/storage"
)

var accountColumns = []string{"id", "balance", "tier", "created_at", "updated_at"}

func setupMock(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { _ = sqlxDB.Close() })

	return NewWithDB(sqlxDB), mock
}

func TestStorage_GetAccount(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		setup       func(mock sqlmock.Sqlmock)
		wantBalance int64
		wantErr     error
	}{
		{
			name: "existing account",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, balance, tier, created_at, updated_at FROM accounts WHERE id = $1")).
					WithArgs("acc-1").
					WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("acc-1", 100, "free", now, now))
			},
			wantBalance: 100,
		},
		{
			name: "missing account",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, balance, tier, created_at, updated_at FROM accounts WHERE id = $1")).
					WithArgs("acc-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: storage.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupMock(t)
			tt.setup(mock)

			acc, err := s.GetAccount(context.Background(), "acc-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBalance, acc.Balance)
				assert.Equal(t, models.TierFree, acc.Tier)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStorage_CreateAccount(t *testing.T) {
	s, mock := setupMock(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts (id, balance, tier) VALUES ($1, 0, $2) ON CONFLICT (id) DO NOTHING")).
		WithArgs("acc-1", "free").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, balance, tier, created_at, updated_at FROM accounts WHERE id = $1")).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("acc-1", 0, "free", now, now))

	acc, err := s.CreateAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), acc.Balance)
	assert.Equal(t, models.TierFree, acc.Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_InTx_CommitsBalanceAndTransaction(t *testing.T) {
	s, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, balance, tier, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE")).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("acc-1", 100, "free", now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(50, "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_transactions (id, account_id, amount, type, description, request_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at")).
		WithArgs(sqlmock.AnyArg(), "acc-1", -50, "usage", "AI generation", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectCommit()

	var txn models.Transaction
	err := s.InTx(context.Background(), func(tx storage.Tx) error {
		acc, err := tx.LockAccount(context.Background(), "acc-1")
		if err != nil {
			return err
		}
		if err := tx.UpdateBalance(context.Background(), acc.ID, acc.Balance-50); err != nil {
			return err
		}
		txn = models.Transaction{AccountID: acc.ID, Amount: -50, Type: models.TransactionUsage, Description: "AI generation"}
		return tx.InsertTransaction(context.Background(), &txn)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txn.ID)
	assert.WithinDuration(t, now, txn.CreatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_InTx_RollsBackWhenTransactionInsertFails(t *testing.T) {
	s, mock := setupMock(t)
	insertErr := errors.New("insert failed")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(100, "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_transactions")).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx storage.Tx) error {
		if err := tx.UpdateBalance(context.Background(), "acc-1", 100); err != nil {
			return err
		}
		return tx.InsertTransaction(context.Background(), &models.Transaction{
			AccountID: "acc-1", Amount: 100, Type: models.TransactionPurchase, Description: "Starter",
		})
	})
	require.ErrorIs(t, err, insertErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_LockAccount_NotFound(t *testing.T) {
	s, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1 FOR UPDATE")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx storage.Tx) error {
		_, err := tx.LockAccount(context.Background(), "missing")
		return err
	})
	require.ErrorIs(t, err, storage.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_UpdateBalance_NoRows(t *testing.T) {
	s, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = $1")).
		WithArgs(10, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx storage.Tx) error {
		return tx.UpdateBalance(context.Background(), "missing", 10)
	})
	require.ErrorIs(t, err, storage.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_FindTransactionByRequestID(t *testing.T) {
	s, mock := setupMock(t)
	now := time.Now()
	columns := []string{"id", "account_id", "amount", "type", "description", "request_id", "created_at"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM credit_transactions WHERE account_id = $1 AND request_id = $2")).
		WithArgs("acc-1", "req-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("tx-1", "acc-1", -1, "usage", "AI generation", "req-1", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM credit_transactions WHERE account_id = $1 AND request_id = $2")).
		WithArgs("acc-1", "req-2").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	err := s.InTx(context.Background(), func(tx storage.Tx) error {
		found, err := tx.FindTransactionByRequestID(context.Background(), "acc-1", "req-1")
		require.NoError(t, err)
		assert.Equal(t, "tx-1", found.ID)
		require.NotNil(t, found.RequestID)
		assert.Equal(t, "req-1", *found.RequestID)

		_, err = tx.FindTransactionByRequestID(context.Background(), "acc-1", "req-2")
		assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_GetPackage(t *testing.T) {
	columns := []string{"id", "name", "credits", "price_cents", "currency", "description", "is_popular"}

	t.Run("known package", func(t *testing.T) {
		s, mock := setupMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM credit_packages WHERE id = $1")).
			WithArgs("starter").
			WillReturnRows(sqlmock.NewRows(columns).AddRow("starter", "Starter", 100, 999, "USD", "Perfect for occasional use", false))

		pkg, err := s.GetPackage(context.Background(), "starter")
		require.NoError(t, err)
		assert.Equal(t, int64(100), pkg.Credits)
		assert.Equal(t, int64(999), pkg.PriceCents)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown package", func(t *testing.T) {
		s, mock := setupMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM credit_packages WHERE id = $1")).
			WithArgs("nonexistent-package").
			WillReturnError(sql.ErrNoRows)

		_, err := s.GetPackage(context.Background(), "nonexistent-package")
		require.ErrorIs(t, err, storage.ErrPackageNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStorage_ListTransactionsAndSum(t *testing.T) {
	s, mock := setupMock(t)
	now := time.Now()
	columns := []string{"id", "account_id", "amount", "type", "description", "request_id", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM credit_transactions WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3")).
		WithArgs("acc-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("tx-2", "acc-1", -50, "usage", "AI generation", nil, now).
			AddRow("tx-1", "acc-1", 100, "purchase", "Starter", nil, now.Add(-time.Minute)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE account_id = $1")).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(50))

	txs, err := s.ListTransactions(context.Background(), "acc-1", 20, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Nil(t, txs[0].RequestID)
	assert.Equal(t, models.TransactionPurchase, txs[1].Type)

	sum, err := s.SumTransactions(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_CanceledContext(t *testing.T) {
	s, _ := setupMock(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetAccount(ctx, "acc-1")
	require.ErrorIs(t, err, context.Canceled)
}
