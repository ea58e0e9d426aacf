package credits

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/metrics"
	"github.com/magabrotheeeer/card-credits/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Repository — хранилище счетов и журнала транзакций.
type Repository interface {
	AccountReader
	TxRunner
	CreateAccount(ctx context.Context, accountID string) (*models.Account, error)
	ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error)
	SumTransactions(ctx context.Context, accountID string) (int64, error)
}

// EventPublisher публикует события об изменении баланса.
type EventPublisher interface {
	Publish(ctx context.Context, event models.LedgerEvent) error
}

// Service объединяет компоненты кредитного учёта для обработчиков HTTP и консьюмера покупок.
type Service struct {
	repo     Repository
	catalog  *Catalog
	ledger   *Ledger
	gate     *Gate
	purchase *PurchaseIntake
	debit    *UsageDebit
	events   EventPublisher
	log      *slog.Logger
}

// NewService создаёт Service. cache и events могут быть nil.
func NewService(repo Repository, packages PackageRepository, cache Cache, events EventPublisher, log *slog.Logger) *Service {
	catalog := NewCatalog(packages, cache, log)
	ledger := NewLedger(repo)
	gate := NewGate(ledger)
	recorder := NewRecorder()
	return &Service{
		repo:     repo,
		catalog:  catalog,
		ledger:   ledger,
		gate:     gate,
		purchase: NewPurchaseIntake(catalog, repo, ledger, recorder),
		debit:    NewUsageDebit(gate, ledger, recorder, repo),
		events:   events,
		log:      log,
	}
}

// Check возвращает баланс, тариф и доступность функций счёта.
func (s *Service) Check(ctx context.Context, accountID string) (models.Capabilities, error) {
	return s.gate.CanConsume(ctx, accountID, 1)
}

// CreateAccount создаёт счёт с нулевым балансом и бесплатным тарифом, если его ещё нет.
func (s *Service) CreateAccount(ctx context.Context, accountID string) (*models.Account, error) {
	const op = "credits.Service.CreateAccount"
	acc, err := s.repo.CreateAccount(ctx, accountID)
	if err != nil {
		return nil, classify(op, err)
	}
	s.log.Info("account provisioned", slog.String("account_id", accountID))
	return acc, nil
}

// Consume списывает кредиты и публикует событие credits.used.
func (s *Service) Consume(ctx context.Context, accountID string, amount int64, description, requestID string) (*models.UsageResult, error) {
	res, err := s.debit.Consume(ctx, accountID, amount, description, requestID)
	if err != nil {
		s.recordDecline(err)
		return nil, err
	}
	if res.Unlimited || res.Replayed {
		return res, nil
	}

	metrics.RecordConsumption(amount)
	s.log.Info("credits consumed",
		slog.String("account_id", accountID),
		slog.Int64("amount", amount),
		slog.Int64("remaining", res.Remaining),
	)
	s.publish(ctx, models.LedgerEvent{
		Type:          models.TransactionUsage,
		AccountID:     accountID,
		Amount:        -amount,
		Balance:       res.Remaining,
		TransactionID: res.TransactionID,
		Description:   description,
	})
	return res, nil
}

// ApplyPurchase зачисляет оплаченный пакет и публикует событие credits.purchased.
func (s *Service) ApplyPurchase(ctx context.Context, accountID, packageID, requestID string) (*models.PurchaseResult, error) {
	res, err := s.purchase.ApplyPurchase(ctx, accountID, packageID, requestID)
	if err != nil {
		s.recordDecline(err)
		return nil, err
	}
	if res.Replayed {
		s.log.Info("purchase already applied",
			slog.String("account_id", accountID),
			slog.String("request_id", requestID),
		)
		return res, nil
	}

	metrics.RecordPurchase(packageID, res.Credits)
	s.log.Info("purchase applied",
		slog.String("account_id", accountID),
		slog.String("package_id", packageID),
		slog.Int64("balance", res.NewBalance),
	)
	s.publish(ctx, models.LedgerEvent{
		Type:          models.TransactionPurchase,
		AccountID:     accountID,
		Amount:        res.Credits,
		Balance:       res.NewBalance,
		TransactionID: res.TransactionID,
		Description:   packageID,
	})
	return res, nil
}

// GetPackage возвращает пакет кредитов или ErrInvalidPackage.
func (s *Service) GetPackage(ctx context.Context, packageID string) (*models.CreditPackage, error) {
	return s.catalog.GetPackage(ctx, packageID)
}

// RefreshPackages сбрасывает кеш справочника пакетов.
func (s *Service) RefreshPackages(ctx context.Context) error {
	return s.catalog.Refresh(ctx)
}

// ListPackages возвращает справочник пакетов.
func (s *Service) ListPackages(ctx context.Context) ([]*models.CreditPackage, error) {
	return s.catalog.ListPackages(ctx)
}

// ListTransactions возвращает историю транзакций счёта, новые первыми.
func (s *Service) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error) {
	const op = "credits.Service.ListTransactions"

	if _, err := s.ledger.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := s.repo.ListTransactions(ctx, accountID, limit, offset)
	if err != nil {
		return nil, classify(op, err)
	}
	return txs, nil
}

// Reconcile сверяет баланс счёта с суммой его транзакций.
func (s *Service) Reconcile(ctx context.Context, accountID string) (*models.Reconciliation, error) {
	const op = "credits.Service.Reconcile"

	acc, err := s.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sum, err := s.repo.SumTransactions(ctx, accountID)
	if err != nil {
		return nil, classify(op, err)
	}

	rec := &models.Reconciliation{
		AccountID:  accountID,
		Balance:    acc.Balance,
		Sum:        sum,
		Consistent: acc.Balance == sum,
	}
	if !rec.Consistent {
		s.log.Error("ledger mismatch",
			slog.String("account_id", accountID),
			slog.Int64("balance", acc.Balance),
			slog.Int64("sum", sum),
		)
	}
	return rec, nil
}

func (s *Service) publish(ctx context.Context, event models.LedgerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish ledger event",
			slog.String("type", string(event.Type)),
			slog.String("account_id", event.AccountID),
			sl.Err(err),
		)
	}
}

func (s *Service) recordDecline(err error) {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		metrics.RecordDecline("insufficient_credits")
	case errors.Is(err, ErrInvalidPackage):
		metrics.RecordDecline("invalid_package")
	case errors.Is(err, ErrNotFound):
		metrics.RecordDecline("account_not_found")
	case errors.Is(err, ErrRequestConflict):
		metrics.RecordDecline("request_conflict")
	}
}
