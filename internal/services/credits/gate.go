package credits

import (
	"context"

	"github.com/magabrotheeeer/card-credits/internal/models"
)

// Gate отвечает на вопрос, доступны ли сейчас AI-генерация и экспорт.
// Результат носит рекомендательный характер: списание проверяет баланс заново.
type Gate struct {
	ledger *Ledger
}

// NewGate создаёт Gate.
func NewGate(ledger *Ledger) *Gate {
	return &Gate{ledger: ledger}
}

// CanConsume вычисляет возможности счёта без изменения состояния.
// Sufficient дополнительно показывает, хватает ли баланса на amount.
func (g *Gate) CanConsume(ctx context.Context, accountID string, amount int64) (models.Capabilities, error) {
	acc, err := g.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return models.Capabilities{}, err
	}

	premium := acc.IsPremium()
	return models.Capabilities{
		Credits:    acc.Balance,
		Tier:       acc.Tier,
		CanUseAI:   premium || acc.Balance > 0,
		CanExport:  premium,
		Sufficient: premium || acc.Balance >= amount,
	}, nil
}
