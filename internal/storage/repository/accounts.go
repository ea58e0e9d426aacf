package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/storage"
)

// GetAccount возвращает счёт по идентификатору.
func (s *Storage) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	const op = "storage.GetAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, balance, tier, created_at, updated_at
			  FROM accounts
			  WHERE id = $1`
	var acc models.Account
	if err := s.DB.GetContext(ctx, &acc, query, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &acc, nil
}

// CreateAccount создаёт счёт с нулевым балансом на бесплатном тарифе.
// Если счёт уже существует, возвращает его без изменений.
func (s *Storage) CreateAccount(ctx context.Context, accountID string) (*models.Account, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO accounts (id, balance, tier)
			  VALUES ($1, 0, $2)
			  ON CONFLICT (id) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, accountID, models.TierFree); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.GetAccount(ctx, accountID)
}

// ListTransactions возвращает транзакции счёта, начиная с самых новых.
func (s *Storage) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_id, amount, type, description, request_id, created_at
			  FROM credit_transactions
			  WHERE account_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`
	result := []*models.Transaction{}
	if err := s.DB.SelectContext(ctx, &result, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumTransactions возвращает сумму всех транзакций счёта.
func (s *Storage) SumTransactions(ctx context.Context, accountID string) (int64, error) {
	const op = "storage.SumTransactions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COALESCE(SUM(amount), 0)
			  FROM credit_transactions
			  WHERE account_id = $1`
	var sum int64
	if err := s.DB.GetContext(ctx, &sum, query, accountID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}
