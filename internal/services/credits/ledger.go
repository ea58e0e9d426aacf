// Package credits реализует кредитный учёт: баланс и тариф счёта, проверку
// доступности функций, журнал транзакций, зачисление купленных пакетов
// и списание кредитов за использование.
package credits

import (
	"context"

	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/storage"
)

// AccountReader читает счёт вне единицы работы.
type AccountReader interface {
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
}

// TxRunner выполняет единицу работы над хранилищем.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx storage.Tx) error) error
}

// Ledger хранит авторитетный баланс и тариф счёта. Баланс меняется только через AdjustBalance.
type Ledger struct {
	accounts AccountReader
}

// NewLedger создаёт Ledger поверх хранилища счетов.
func NewLedger(accounts AccountReader) *Ledger {
	return &Ledger{accounts: accounts}
}

// GetAccount возвращает баланс и тариф счёта. Побочных эффектов нет.
func (l *Ledger) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	const op = "credits.Ledger.GetAccount"
	acc, err := l.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, classify(op, err)
	}
	return acc, nil
}

// AdjustBalance применяет delta к балансу внутри tx. Счёт блокируется до конца
// единицы работы, а итоговый баланс повторно проверяется: отрицательным он не становится.
func (l *Ledger) AdjustBalance(ctx context.Context, tx storage.Tx, accountID string, delta int64) (*models.Account, error) {
	const op = "credits.Ledger.AdjustBalance"

	acc, err := tx.LockAccount(ctx, accountID)
	if err != nil {
		return nil, classify(op, err)
	}

	newBalance := acc.Balance + delta
	if delta < 0 && newBalance < 0 {
		return nil, classify(op, &ShortfallError{Required: -delta, Available: acc.Balance})
	}
	if err := tx.UpdateBalance(ctx, accountID, newBalance); err != nil {
		return nil, classify(op, err)
	}

	acc.Balance = newBalance
	return acc, nil
}
