// Package models содержит доменные структуры кредитного учёта: счёт пользователя,
// транзакции, пакеты кредитов и результаты операций списания и пополнения.
package models

import "time"

// Tier — тарифный уровень счёта.
type Tier string

const (
	// TierFree — бесплатный тариф, использование ограничено балансом.
	TierFree Tier = "free"
	// TierPremium — безлимитный тариф, баланс при использовании не списывается.
	TierPremium Tier = "premium"
)

// Account представляет кредитный счёт пользователя.
type Account struct {
	ID        string    `db:"id" json:"id"`
	Balance   int64     `db:"balance" json:"credits"`
	Tier      Tier      `db:"tier" json:"tier"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsPremium сообщает, относится ли счёт к безлимитному тарифу.
func (a *Account) IsPremium() bool {
	return a.Tier == TierPremium
}

// Capabilities — результат проверки доступности платных функций.
type Capabilities struct {
	Credits   int64 `json:"credits"`
	Tier      Tier  `json:"tier"`
	CanUseAI  bool  `json:"canUseAI"`
	CanExport bool  `json:"canExport"`
	// Sufficient — хватает ли баланса на запрошенное количество кредитов.
	Sufficient bool `json:"-"`
}
