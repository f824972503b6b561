package models

import "time"

// CurrencyTotal - сумма одобренных платежей в одной валюте.
type CurrencyTotal struct {
	Currency string  `db:"currency" json:"currency"`
	Total    float64 `db:"total" json:"total"`
	Payments int     `db:"payments" json:"payments"`
}

// RevenueReport - выручка, приведённая к базовой валюте по таблице курсов.
type RevenueReport struct {
	BaseCurrency     string          `json:"baseCurrency,omitempty"`
	TotalInBase      float64         `json:"totalInBase"`
	ByCurrency       []CurrencyTotal `json:"byCurrency"`
	Unconverted      []CurrencyTotal `json:"unconverted"`
	RequestsByStatus map[string]int  `json:"requestsByStatus"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}
