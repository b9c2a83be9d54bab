package utils

import (
	"github.com/shopspring/decimal"
)

// math.go - денежная арифметика сделок
//
// Все функции чистые и работают с decimal.Decimal,
// чтобы суммы, цены и объёмы не теряли точность на float64.

// RoundToStep округляет значение ВНИЗ до ближайшего кратного step.
//
// Округление вниз гарантирует, что объём ордера не превысит доступные средства.
// Если step <= 0, возвращает исходное значение.
//
// Примеры:
//   - RoundToStep(0.123456, 0.001) = 0.123
//   - RoundToStep(1.999, 0.01) = 1.99
func RoundToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	return value.Div(step).Floor().Mul(step)
}

// PositionQuantity рассчитывает объём позиции:
//
//	qty = floor_step(balance × sizeFraction / price)
//
// Возвращает ноль при неположительной цене.
func PositionQuantity(balance, sizeFraction, price, step decimal.Decimal) decimal.Decimal {
	if price.Sign() <= 0 {
		return decimal.Zero
	}
	raw := balance.Mul(sizeFraction).Div(price)
	return RoundToStep(raw, step)
}

// StopLossPrice - уровень стоп-лосса от цены входа.
// long=true: entry×(1-pct), иначе entry×(1+pct).
func StopLossPrice(long bool, entry, pct decimal.Decimal) decimal.Decimal {
	if long {
		return entry.Mul(decimal.NewFromInt(1).Sub(pct))
	}
	return entry.Mul(decimal.NewFromInt(1).Add(pct))
}

// TakeProfitPrice - уровень тейк-профита от цены входа.
// long=true: entry×(1+pct), иначе entry×(1-pct).
func TakeProfitPrice(long bool, entry, pct decimal.Decimal) decimal.Decimal {
	if long {
		return entry.Mul(decimal.NewFromInt(1).Add(pct))
	}
	return entry.Mul(decimal.NewFromInt(1).Sub(pct))
}

// CalculatePNL - PnL сделки по направлению.
//
//	LONG:  (exit - entry) × qty
//	SHORT: (entry - exit) × qty
func CalculatePNL(long bool, entry, exit, qty decimal.Decimal) decimal.Decimal {
	if long {
		return exit.Sub(entry).Mul(qty)
	}
	return entry.Sub(exit).Mul(qty)
}

// DrawdownFraction возвращает долю дневного убытка от баланса.
// Прибыльный день даёт 0. Баланс должен быть > 0.
func DrawdownFraction(dailyPnL, balance decimal.Decimal) decimal.Decimal {
	if dailyPnL.Sign() >= 0 || balance.Sign() <= 0 {
		return decimal.Zero
	}
	return dailyPnL.Abs().Div(balance)
}

// MinAbs возвращает меньшее по модулю значение (модуль)
func MinAbs(a, b decimal.Decimal) decimal.Decimal {
	return decimal.Min(a.Abs(), b.Abs())
}
