//go:build integration

package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/card-credits/internal/migrations"
	"github.com/magabrotheeeer/card-credits/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateAccount создает счёт с заданным балансом и тарифом в обход журнала
func (f *TestDataFactory) CreateAccount(t *testing.T, accountID string, balance int64, tier models.Tier) {
	_, err := f.storage.DB.Exec(`INSERT INTO accounts (id, balance, tier) VALUES ($1, $2, $3)`,
		accountID, balance, tier)
	require.NoError(t, err)
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyBalance проверяет баланс счёта
func (v *TestVerification) VerifyBalance(t *testing.T, accountID string, expected int64) {
	var balance int64
	err := v.storage.DB.QueryRow("SELECT balance FROM accounts WHERE id = $1", accountID).Scan(&balance)
	require.NoError(t, err)
	require.Equal(t, expected, balance)
}

// VerifyTransactionCount проверяет количество транзакций счёта
func (v *TestVerification) VerifyTransactionCount(t *testing.T, accountID string, expected int) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM credit_transactions WHERE account_id = $1", accountID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// VerifyReconciled проверяет, что баланс равен сумме транзакций
func (v *TestVerification) VerifyReconciled(t *testing.T, accountID string) {
	var balance, sum int64
	err := v.storage.DB.QueryRow(`
		SELECT a.balance, COALESCE(SUM(t.amount), 0)
		FROM accounts a
		LEFT JOIN credit_transactions t ON t.account_id = a.id
		WHERE a.id = $1
		GROUP BY a.balance`, accountID).Scan(&balance, &sum)
	require.NoError(t, err)
	require.Equal(t, sum, balance)
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB.DB, migrationsPath))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}
