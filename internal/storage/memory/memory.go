// Package memory реализует хранилище кредитного учёта в памяти процесса.
// Единица работы сериализуется мьютексом, изменения применяются к копии
// состояния и публикуются только при успешном завершении.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/storage"
)

// Store — хранилище счетов, транзакций и пакетов в памяти.
type Store struct {
	mu           sync.Mutex
	accounts     map[string]models.Account
	transactions []models.Transaction
	packages     map[string]models.CreditPackage
	now          func() time.Time

	// FailInsertTransaction, если задана, возвращается из InsertTransaction.
	FailInsertTransaction error
}

// New создаёт пустое хранилище с заданным справочником пакетов.
func New(packages ...models.CreditPackage) *Store {
	s := &Store{
		accounts: make(map[string]models.Account),
		packages: make(map[string]models.CreditPackage, len(packages)),
		now:      time.Now,
	}
	for _, p := range packages {
		s.packages[p.ID] = p
	}
	return s
}

// PutAccount записывает счёт напрямую, минуя журнал транзакций.
func (s *Store) PutAccount(acc models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = s.now()
		acc.UpdatedAt = acc.CreatedAt
	}
	s.accounts[acc.ID] = acc
}

// GetAccount возвращает копию счёта.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	const op = "memory.GetAccount"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
	}
	return &acc, nil
}

// CreateAccount создаёт счёт, если его ещё нет.
func (s *Store) CreateAccount(ctx context.Context, accountID string) (*models.Account, error) {
	const op = "memory.CreateAccount"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		now := s.now()
		acc = models.Account{ID: accountID, Tier: models.TierFree, CreatedAt: now, UpdatedAt: now}
		s.accounts[accountID] = acc
	}
	return &acc, nil
}

// ListTransactions возвращает транзакции счёта, начиная с самых новых.
func (s *Store) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error) {
	const op = "memory.ListTransactions"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*models.Transaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].AccountID == accountID {
			t := s.transactions[i]
			all = append(all, &t)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	result := []*models.Transaction{}
	if offset >= len(all) {
		return result, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return append(result, all[offset:end]...), nil
}

// SumTransactions возвращает сумму транзакций счёта.
func (s *Store) SumTransactions(ctx context.Context, accountID string) (int64, error) {
	const op = "memory.SumTransactions"
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, t := range s.transactions {
		if t.AccountID == accountID {
			sum += t.Amount
		}
	}
	return sum, nil
}

// GetPackage возвращает пакет кредитов.
func (s *Store) GetPackage(ctx context.Context, packageID string) (*models.CreditPackage, error) {
	const op = "memory.GetPackage"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packages[packageID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPackageNotFound)
	}
	return &p, nil
}

// ListPackages возвращает пакеты по возрастанию объёма.
func (s *Store) ListPackages(ctx context.Context) ([]*models.CreditPackage, error) {
	const op = "memory.ListPackages"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*models.CreditPackage, 0, len(s.packages))
	for _, p := range s.packages {
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Credits < result[j].Credits })
	return result, nil
}

// InTx выполняет fn над копией состояния и публикует её, если fn завершилась без ошибки.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	const op = "memory.InTx"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stage := &unitOfWork{
		store:        s,
		accounts:     make(map[string]models.Account, len(s.accounts)),
		transactions: append([]models.Transaction(nil), s.transactions...),
	}
	for id, acc := range s.accounts {
		stage.accounts[id] = acc
	}

	if err := fn(stage); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.accounts = stage.accounts
	s.transactions = stage.transactions
	return nil
}

type unitOfWork struct {
	store        *Store
	accounts     map[string]models.Account
	transactions []models.Transaction
}

func (u *unitOfWork) LockAccount(_ context.Context, accountID string) (*models.Account, error) {
	acc, ok := u.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("memory.LockAccount: %w", storage.ErrAccountNotFound)
	}
	return &acc, nil
}

func (u *unitOfWork) UpdateBalance(_ context.Context, accountID string, balance int64) error {
	acc, ok := u.accounts[accountID]
	if !ok {
		return fmt.Errorf("memory.UpdateBalance: %w", storage.ErrAccountNotFound)
	}
	acc.Balance = balance
	acc.UpdatedAt = u.store.now()
	u.accounts[accountID] = acc
	return nil
}

func (u *unitOfWork) InsertTransaction(_ context.Context, t *models.Transaction) error {
	if u.store.FailInsertTransaction != nil {
		return fmt.Errorf("memory.InsertTransaction: %w", u.store.FailInsertTransaction)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = u.store.now()
	u.transactions = append(u.transactions, *t)
	return nil
}

func (u *unitOfWork) FindTransactionByRequestID(_ context.Context, accountID, requestID string) (*models.Transaction, error) {
	for _, t := range u.transactions {
		if t.AccountID == accountID && t.RequestID != nil && *t.RequestID == requestID {
			found := t
			return &found, nil
		}
	}
	return nil, fmt.Errorf("memory.FindTransactionByRequestID: %w", storage.ErrTransactionNotFound)
}
