package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/storage"
)

// PackageResolver находит пакет кредитов по идентификатору.
type PackageResolver interface {
	GetPackage(ctx context.Context, packageID string) (*models.CreditPackage, error)
}

// PurchaseIntake зачисляет кредиты купленного пакета. Вызывается только после того,
// как платёжный провайдер подтвердил оплату.
type PurchaseIntake struct {
	packages PackageResolver
	store    TxRunner
	ledger   *Ledger
	recorder *Recorder
}

// NewPurchaseIntake создаёт PurchaseIntake.
func NewPurchaseIntake(packages PackageResolver, store TxRunner, ledger *Ledger, recorder *Recorder) *PurchaseIntake {
	return &PurchaseIntake{
		packages: packages,
		store:    store,
		ledger:   ledger,
		recorder: recorder,
	}
}

// ApplyPurchase зачисляет пакет packageID на счёт и возвращает новый баланс.
// Если requestID уже встречался для этого счёта, повторного зачисления не происходит.
func (p *PurchaseIntake) ApplyPurchase(ctx context.Context, accountID, packageID, requestID string) (*models.PurchaseResult, error) {
	const op = "credits.PurchaseIntake.ApplyPurchase"

	pkg, err := p.packages.GetPackage(ctx, packageID)
	if err != nil {
		return nil, classify(op, err)
	}

	var result models.PurchaseResult
	err = p.store.InTx(ctx, func(tx storage.Tx) error {
		if requestID != "" {
			// Блокировка счёта до поиска упорядочивает повторы одного запроса.
			locked, err := tx.LockAccount(ctx, accountID)
			if err != nil {
				return err
			}
			prior, err := tx.FindTransactionByRequestID(ctx, accountID, requestID)
			switch {
			case err == nil && prior.Type != models.TransactionPurchase:
				return fmt.Errorf("%w: %s is a %s", ErrRequestConflict, requestID, prior.Type)
			case err == nil:
				result = models.PurchaseResult{
					NewBalance:    locked.Balance,
					Credits:       prior.Amount,
					TransactionID: prior.ID,
					Replayed:      true,
				}
				return nil
			case !errors.Is(err, storage.ErrTransactionNotFound):
				return err
			}
		}

		acc, err := p.ledger.AdjustBalance(ctx, tx, accountID, pkg.Credits)
		if err != nil {
			return err
		}
		t, err := p.recorder.Record(ctx, tx, accountID, pkg.Credits, models.TransactionPurchase, packageDescription(pkg), requestID)
		if err != nil {
			return err
		}

		result = models.PurchaseResult{
			NewBalance:    acc.Balance,
			Credits:       pkg.Credits,
			TransactionID: t.ID,
		}
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return &result, nil
}

func packageDescription(pkg *models.CreditPackage) string {
	if pkg.Description != "" {
		return pkg.Description
	}
	return fmt.Sprintf("%s package", pkg.Name)
}
