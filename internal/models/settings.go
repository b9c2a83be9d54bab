package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings - торговые настройки, изменённые через панель управления.
//
// Хранятся одной записью (id=1) и при старте перекрывают значения из окружения.
type Settings struct {
	ID                  int             `json:"id" db:"id"`
	PositionSizePercent decimal.Decimal `json:"position_size_percent" db:"position_size_percent"`
	StopLossPercent     decimal.Decimal `json:"stop_loss_percent" db:"stop_loss_percent"`
	TakeProfitPercent   decimal.Decimal `json:"take_profit_percent" db:"take_profit_percent"`
	MaxDailyDrawdown    decimal.Decimal `json:"max_daily_drawdown" db:"max_daily_drawdown"`
	MaxOpenPositions    int             `json:"max_open_positions" db:"max_open_positions"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}
