package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position - агрегированная позиция по символу
//
// Size со знаком: > 0 лонг, < 0 шорт. Нулевой размер не хранится.
type Position struct {
	Symbol        string          `json:"symbol" db:"symbol"`
	Size          decimal.Decimal `json:"size" db:"size"`
	EntryPrice    decimal.Decimal `json:"entry_price" db:"entry_price"`
	Leverage      int             `json:"leverage" db:"leverage"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl" db:"unrealized_pnl"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Side возвращает направление по знаку размера
func (p *Position) Side() Side {
	if p.Size.Sign() < 0 {
		return SideShort
	}
	return SideLong
}

// Unrealized рассчитывает нереализованный PnL при цене price:
//
//	long:  (price - entry) × size
//	short: (entry - price) × |size|
func (p *Position) Unrealized(price decimal.Decimal) decimal.Decimal {
	if p.Size.Sign() >= 0 {
		return price.Sub(p.EntryPrice).Mul(p.Size)
	}
	return p.EntryPrice.Sub(price).Mul(p.Size.Abs())
}
