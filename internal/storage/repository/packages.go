package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/storage"
)

// GetPackage возвращает пакет кредитов по идентификатору.
func (s *Storage) GetPackage(ctx context.Context, packageID string) (*models.CreditPackage, error) {
	const op = "storage.GetPackage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, credits, price_cents, currency, description, is_popular
			  FROM credit_packages
			  WHERE id = $1`
	var pkg models.CreditPackage
	if err := s.DB.GetContext(ctx, &pkg, query, packageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPackageNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &pkg, nil
}

// ListPackages возвращает все пакеты кредитов по возрастанию объёма.
func (s *Storage) ListPackages(ctx context.Context) ([]*models.CreditPackage, error) {
	const op = "storage.ListPackages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, credits, price_cents, currency, description, is_popular
			  FROM credit_packages
			  ORDER BY credits`
	result := []*models.CreditPackage{}
	if err := s.DB.SelectContext(ctx, &result, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
