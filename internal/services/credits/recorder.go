package credits

import (
	"context"

	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/storage"
)

// Recorder добавляет неизменяемые записи транзакций.
type Recorder struct{}

// NewRecorder создаёт Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record записывает одну транзакцию внутри tx. Ошибка записи откатывает
// всю единицу работы вместе с изменением баланса.
func (r *Recorder) Record(ctx context.Context, tx storage.Tx, accountID string, amount int64,
	typ models.TransactionType, description, requestID string) (*models.Transaction, error) {
	const op = "credits.Recorder.Record"

	t := &models.Transaction{
		AccountID:   accountID,
		Amount:      amount,
		Type:        typ,
		Description: description,
	}
	if requestID != "" {
		t.RequestID = &requestID
	}
	if err := tx.InsertTransaction(ctx, t); err != nil {
		return nil, classify(op, err)
	}
	return t, nil
}
