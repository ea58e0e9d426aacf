package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/storage"
)

// UsageDebit списывает кредиты за одно использование функции. Это единственная
// точка принудительной проверки баланса.
type UsageDebit struct {
	gate     *Gate
	ledger   *Ledger
	recorder *Recorder
	store    TxRunner
}

// NewUsageDebit создаёт UsageDebit.
func NewUsageDebit(gate *Gate, ledger *Ledger, recorder *Recorder, store TxRunner) *UsageDebit {
	return &UsageDebit{
		gate:     gate,
		ledger:   ledger,
		recorder: recorder,
		store:    store,
	}
}

// Consume списывает amount кредитов со счёта.
//
// Счета premium не списываются и транзакций не получают. Для бесплатного счёта
// при нехватке баланса возвращается ShortfallError, ничего не записывается.
// Иначе списание и транзакция фиксируются вместе.
func (d *UsageDebit) Consume(ctx context.Context, accountID string, amount int64, description, requestID string) (*models.UsageResult, error) {
	const op = "credits.UsageDebit.Consume"

	if amount <= 0 {
		return nil, classify(op, ErrInvalidAmount)
	}

	caps, err := d.gate.CanConsume(ctx, accountID, amount)
	if err != nil {
		return nil, classify(op, err)
	}
	if caps.Tier == models.TierPremium {
		return &models.UsageResult{Unlimited: true}, nil
	}
	// Повтор запроса с известным requestID проверяется внутри единицы работы.
	if requestID == "" && !caps.Sufficient {
		return nil, classify(op, &ShortfallError{Required: amount, Available: caps.Credits})
	}

	var result models.UsageResult
	err = d.store.InTx(ctx, func(tx storage.Tx) error {
		if requestID != "" {
			// Блокировка счёта до поиска упорядочивает повторы одного запроса.
			locked, err := tx.LockAccount(ctx, accountID)
			if err != nil {
				return err
			}
			prior, err := tx.FindTransactionByRequestID(ctx, accountID, requestID)
			switch {
			case err == nil && prior.Type != models.TransactionUsage:
				return fmt.Errorf("%w: %s is a %s", ErrRequestConflict, requestID, prior.Type)
			case err == nil:
				result = models.UsageResult{
					Remaining:     locked.Balance,
					TransactionID: prior.ID,
					Replayed:      true,
				}
				return nil
			case !errors.Is(err, storage.ErrTransactionNotFound):
				return err
			}
		}

		updated, err := d.ledger.AdjustBalance(ctx, tx, accountID, -amount)
		if err != nil {
			return err
		}
		t, err := d.recorder.Record(ctx, tx, accountID, -amount, models.TransactionUsage, description, requestID)
		if err != nil {
			return err
		}

		result = models.UsageResult{
			Remaining:     updated.Balance,
			TransactionID: t.ID,
		}
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return &result, nil
}
