package models

// Unlimited — значение остатка для счетов безлимитного тарифа.
const Unlimited = "unlimited"

// UsageResult описывает итог списания кредитов.
type UsageResult struct {
	Unlimited     bool
	Remaining     int64
	TransactionID string
	// Replayed выставляется, если запрос с тем же идентификатором уже был применён.
	Replayed bool
}

// RemainingCredits возвращает остаток в формате API: число или "unlimited".
func (r UsageResult) RemainingCredits() any {
	if r.Unlimited {
		return Unlimited
	}
	return r.Remaining
}

// PurchaseResult описывает итог зачисления пакета.
type PurchaseResult struct {
	NewBalance    int64  `json:"newBalance"`
	Credits       int64  `json:"credits"`
	TransactionID string `json:"transactionId"`
	Replayed      bool   `json:"replayed"`
}

// PurchaseConfirmation — сообщение о подтверждённой оплате пакета,
// которое публикует сервис проверки платежей.
type PurchaseConfirmation struct {
	AccountID string `json:"accountId" validate:"required"`
	PackageID string `json:"packageId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
}

// LedgerEvent — событие об изменении баланса, публикуемое после коммита.
type LedgerEvent struct {
	Type          TransactionType `json:"type"`
	AccountID     string          `json:"accountId"`
	Amount        int64           `json:"amount"`
	Balance       int64           `json:"balance"`
	TransactionID string          `json:"transactionId"`
	Description   string          `json:"description"`
}

// Reconciliation сравнивает баланс счёта с суммой его транзакций.
type Reconciliation struct {
	AccountID  string `json:"accountId"`
	Balance    int64  `json:"balance"`
	Sum        int64  `json:"sum"`
	Consistent bool   `json:"consistent"`
}
