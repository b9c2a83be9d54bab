package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side - направление сделки
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Valid проверяет что направление известно
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// IsLong - true для LONG
func (s Side) IsLong() bool {
	return s == SideLong
}

// OrderSide - сторона ордера на открытие (BUY для LONG, SELL для SHORT)
func (s Side) OrderSide() OrderSide {
	if s == SideLong {
		return OrderSideBuy
	}
	return OrderSideSell
}

// CloseSide - сторона противоположного ордера на закрытие
func (s Side) CloseSide() OrderSide {
	if s == SideLong {
		return OrderSideSell
	}
	return OrderSideBuy
}

// Signed возвращает объём со знаком: + для LONG, - для SHORT
func (s Side) Signed(qty decimal.Decimal) decimal.Decimal {
	if s == SideLong {
		return qty
	}
	return qty.Neg()
}

// OrderSide - сторона рыночного ордера на шлюзе
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Trade - сделка по сигналу
//
// StopLoss/TakeProfit фиксируются при создании и не меняются.
// Переход статуса только OPEN -> CLOSED; CLOSED терминален.
type Trade struct {
	ID          int                 `json:"id" db:"id"`
	SignalID    int                 `json:"signal_id" db:"signal_id"`
	Symbol      string              `json:"symbol" db:"symbol"`
	Side        Side                `json:"side" db:"side"`
	Quantity    decimal.Decimal     `json:"quantity" db:"quantity"`
	EntryPrice  decimal.Decimal     `json:"entry_price" db:"entry_price"`
	StopLoss    decimal.Decimal     `json:"stop_loss" db:"stop_loss"`
	TakeProfit  decimal.Decimal     `json:"take_profit" db:"take_profit"`
	Status      string              `json:"status" db:"status"`
	ExitPrice   decimal.NullDecimal `json:"exit_price" db:"exit_price"`
	RealizedPnL decimal.NullDecimal `json:"realized_pnl" db:"realized_pnl"`
	OrderID     string              `json:"order_id,omitempty" db:"order_id"`
	CloseReason string              `json:"close_reason,omitempty" db:"close_reason"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	ClosedAt    *time.Time          `json:"closed_at,omitempty" db:"closed_at"`
}

// Статусы сделки
const (
	TradeStatusOpen      = "OPEN"
	TradeStatusClosed    = "CLOSED"
	TradeStatusCancelled = "CANCELLED"
)

// Причины закрытия/отмены
const (
	CloseReasonStopLoss         = "stop_loss"
	CloseReasonTakeProfit       = "take_profit"
	CloseReasonManual           = "manual"
	CloseReasonApprovalRejected = "approval_rejected"
)

// IsOpen - true для открытой сделки
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// StopLossHit проверяет срабатывание стоп-лосса при цене price.
// LONG: price <= SL, SHORT: price >= SL.
func (t *Trade) StopLossHit(price decimal.Decimal) bool {
	if t.Side.IsLong() {
		return price.LessThanOrEqual(t.StopLoss)
	}
	return price.GreaterThanOrEqual(t.StopLoss)
}

// TakeProfitHit проверяет срабатывание тейк-профита при цене price.
// LONG: price >= TP, SHORT: price <= TP.
func (t *Trade) TakeProfitHit(price decimal.Decimal) bool {
	if t.Side.IsLong() {
		return price.GreaterThanOrEqual(t.TakeProfit)
	}
	return price.LessThanOrEqual(t.TakeProfit)
}
