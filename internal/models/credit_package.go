package models

// CreditPackage — справочная запись о продаваемом пакете кредитов.
type CreditPackage struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Credits     int64  `db:"credits" json:"credits"`
	PriceCents  int64  `db:"price_cents" json:"priceCents"`
	Currency    string `db:"currency" json:"currency"`
	Description string `db:"description" json:"description"`
	IsPopular   bool   `db:"is_popular" json:"isPopular"`
}
