package purchases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/card-credits/internal/metrics"
	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/rabbitmq"
	"github.com/magabrotheeeer/card-credits/internal/services/credits"
	"github.com/magabrotheeeer/card-credits/internal/storage/memory"
)

type MockApplier struct {
	mock.Mock
}

func (m *MockApplier) ApplyPurchase(ctx context.Context, accountID, packageID, requestID string) (*models.PurchaseResult, error) {
	args := m.Called(ctx, accountID, packageID, requestID)
	if res := args.Get(0); res != nil {
		return res.(*models.PurchaseResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleConfirmation(t *testing.T) {
	validBody := `{"accountId":"acc-1","packageId":"starter","paymentId":"pay-1"}`

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockApplier)
		wantErr    error
		wantResult string
	}{
		{
			name: "applied",
			body: validBody,
			setupMock: func(m *MockApplier) {
				m.On("ApplyPurchase", mock.Anything, "acc-1", "starter", "pay-1").
					Return(&models.PurchaseResult{NewBalance: 100, Credits: 100}, nil)
			},
			wantResult: "applied",
		},
		{
			name: "duplicate delivery",
			body: validBody,
			setupMock: func(m *MockApplier) {
				m.On("ApplyPurchase", mock.Anything, "acc-1", "starter", "pay-1").
					Return(&models.PurchaseResult{NewBalance: 100, Credits: 100, Replayed: true}, nil)
			},
			wantResult: "duplicate",
		},
		{
			name:       "malformed json is rejected",
			body:       `{"accountId":`,
			setupMock:  func(_ *MockApplier) {},
			wantErr:    rabbitmq.ErrReject,
			wantResult: "rejected",
		},
		{
			name:       "missing payment id is rejected",
			body:       `{"accountId":"acc-1","packageId":"starter"}`,
			setupMock:  func(_ *MockApplier) {},
			wantErr:    rabbitmq.ErrReject,
			wantResult: "rejected",
		},
		{
			name: "unknown package is rejected",
			body: validBody,
			setupMock: func(m *MockApplier) {
				m.On("ApplyPurchase", mock.Anything, "acc-1", "starter", "pay-1").
					Return(nil, fmt.Errorf("wrap: %w", credits.ErrInvalidPackage))
			},
			wantErr:    rabbitmq.ErrReject,
			wantResult: "rejected",
		},
		{
			name: "unknown account is rejected",
			body: validBody,
			setupMock: func(m *MockApplier) {
				m.On("ApplyPurchase", mock.Anything, "acc-1", "starter", "pay-1").
					Return(nil, fmt.Errorf("wrap: %w", credits.ErrNotFound))
			},
			wantErr:    rabbitmq.ErrReject,
			wantResult: "rejected",
		},
		{
			name: "payment id used by usage is rejected",
			body: validBody,
			setupMock: func(m *MockApplier) {
				m.On("ApplyPurchase", mock.Anything, "acc-1", "starter", "pay-1").
					Return(nil, fmt.Errorf("wrap: %w", credits.ErrRequestConflict))
			},
			wantErr:    rabbitmq.ErrReject,
			wantResult: "rejected",
		},
		{
			name: "storage failure is retried",
			body: validBody,
			setupMock: func(m *MockApplier) {
				m.On("ApplyPurchase", mock.Anything, "acc-1", "starter", "pay-1").
					Return(nil, fmt.Errorf("wrap: %w", credits.ErrStorageUnavailable))
			},
			wantErr:    credits.ErrStorageUnavailable,
			wantResult: "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics.PurchaseMessagesTotal.Reset()
			applier := new(MockApplier)
			tt.setupMock(applier)

			err := New(applier, newNoopLogger()).HandleConfirmation(context.Background(), []byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PurchaseMessagesTotal.WithLabelValues(tt.wantResult)))
			applier.AssertExpectations(t)
		})
	}
}

func TestHandleConfirmation_RedeliveryCreditsOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New(models.CreditPackage{ID: "pro", Name: "Pro", Credits: 500, PriceCents: 3999, Currency: "USD"})
	store.PutAccount(models.Account{ID: "acc-1", Tier: models.TierFree})
	svc := credits.NewService(store, store, nil, nil, newNoopLogger())
	handler := New(svc, newNoopLogger())

	body := []byte(`{"accountId":"acc-1","packageId":"pro","paymentId":"pay-42"}`)
	for i := 0; i < 3; i++ {
		require.NoError(t, handler.HandleConfirmation(ctx, body))
	}

	acc, err := store.GetAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), acc.Balance)

	txs, err := store.ListTransactions(ctx, "acc-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].RequestID)
	assert.Equal(t, "pay-42", *txs[0].RequestID)
}

func TestHandleConfirmation_StorageFailureIsNotRejected(t *testing.T) {
	applier := new(MockApplier)
	applier.On("ApplyPurchase", mock.Anything, "acc-1", "starter", "pay-1").
		Return(nil, fmt.Errorf("wrap: %w", credits.ErrStorageUnavailable))

	err := New(applier, newNoopLogger()).HandleConfirmation(context.Background(),
		[]byte(`{"accountId":"acc-1","packageId":"starter","paymentId":"pay-1"}`))

	require.Error(t, err)
	assert.NotErrorIs(t, err, rabbitmq.ErrReject)
}
