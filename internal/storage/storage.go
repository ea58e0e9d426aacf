// Package storage описывает контракт хранилища кредитного учёта: единицу работы
// над счётом и ошибки, общие для всех реализаций (PostgreSQL и in-memory).
package storage

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/card-credits/internal/models"
)

var (
	// ErrAccountNotFound — счёт не существует.
	ErrAccountNotFound = errors.New("account not found")
	// ErrPackageNotFound — пакет кредитов не существует.
	ErrPackageNotFound = errors.New("credit package not found")
	// ErrTransactionNotFound — транзакция с заданным идентификатором запроса не найдена.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Tx — единица работы над счётом. Все изменения, сделанные через Tx,
// фиксируются вместе или не фиксируются вовсе.
type Tx interface {
	// LockAccount читает счёт и удерживает его до конца единицы работы.
	LockAccount(ctx context.Context, accountID string) (*models.Account, error)
	// UpdateBalance записывает новый баланс счёта.
	UpdateBalance(ctx context.Context, accountID string, balance int64) error
	// InsertTransaction добавляет запись транзакции и заполняет CreatedAt.
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	// FindTransactionByRequestID ищет ранее записанную транзакцию по идентификатору запроса.
	FindTransactionByRequestID(ctx context.Context, accountID, requestID string) (*models.Transaction, error)
}
