package models

import "time"

// TransactionType — причина изменения баланса.
type TransactionType string

const (
	// TransactionPurchase — покупка пакета кредитов.
	TransactionPurchase TransactionType = "purchase"
	// TransactionUsage — списание за использование функции.
	TransactionUsage TransactionType = "usage"
	// TransactionBonus — бонусное начисление.
	TransactionBonus TransactionType = "bonus"
)

// Transaction — неизменяемая запись об изменении баланса.
// Сумма Amount всех транзакций счёта равна его балансу.
type Transaction struct {
	ID          string          `db:"id" json:"id"`
	AccountID   string          `db:"account_id" json:"accountId"`
	Amount      int64           `db:"amount" json:"amount"`
	Type        TransactionType `db:"type" json:"type"`
	Description string          `db:"description" json:"description"`
	RequestID   *string         `db:"request_id" json:"requestId,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}
