package models

import "time"

// Signal - оценённый торговый сигнал от внешнего скорера
//
// Символ и направление опциональны: если скорер их не выставил,
// используются TRADING_DEFAULT_SYMBOL/TRADING_DEFAULT_SIDE.
type Signal struct {
	ID        int       `json:"id" db:"id"`
	Source    string    `json:"source" db:"source"`
	Score     int       `json:"score" db:"score"`
	Symbol    string    `json:"symbol,omitempty" db:"symbol"`
	Side      Side      `json:"side,omitempty" db:"side"`
	Processed bool      `json:"processed" db:"processed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
