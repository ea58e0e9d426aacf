package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/storage"
)

// InTx выполняет fn в одной транзакции БД. Ошибка fn или коммита откатывает
// все изменения, сделанные через переданный storage.Tx.
func (s *Storage) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	const op = "storage.InTx"

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&unitOfWork{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type unitOfWork struct {
	tx *sqlx.Tx
}

func (u *unitOfWork) LockAccount(ctx context.Context, accountID string) (*models.Account, error) {
	const op = "storage.LockAccount"

	query := `SELECT id, balance, tier, created_at, updated_at
			  FROM accounts
			  WHERE id = $1
			  FOR UPDATE`
	var acc models.Account
	if err := u.tx.GetContext(ctx, &acc, query, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &acc, nil
}

func (u *unitOfWork) UpdateBalance(ctx context.Context, accountID string, balance int64) error {
	const op = "storage.UpdateBalance"

	query := `UPDATE accounts
			  SET balance = $1, updated_at = NOW()
			  WHERE id = $2`
	res, err := u.tx.ExecContext(ctx, query, balance, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
	}
	return nil
}

func (u *unitOfWork) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	const op = "storage.InsertTransaction"

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	query := `INSERT INTO credit_transactions (id, account_id, amount, type, description, request_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING created_at`
	if err := u.tx.QueryRowxContext(ctx, query,
		t.ID, t.AccountID, t.Amount, t.Type, t.Description, t.RequestID).Scan(&t.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (u *unitOfWork) FindTransactionByRequestID(ctx context.Context, accountID, requestID string) (*models.Transaction, error) {
	const op = "storage.FindTransactionByRequestID"

	query := `SELECT id, account_id, amount, type, description, request_id, created_at
			  FROM credit_transactions
			  WHERE account_id = $1 AND request_id = $2`
	var t models.Transaction
	if err := u.tx.GetContext(ctx, &t, query, accountID, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &t, nil
}
