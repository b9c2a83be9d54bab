package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// validator.go - проверка входных данных торговых операций

var (
	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrInvalidSide     = errors.New("side must be LONG or SHORT")
	ErrInvalidFraction = errors.New("value must be in (0, 1]")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

var symbolRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_/\-]{1,29}$`)

// ValidateSymbol проверяет формат символа (BTCUSDT, btc-usdt, BTC/USDT)
func ValidateSymbol(symbol string) error {
	if !symbolRe.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// NormalizeSymbol приводит символ к виду биржи: верхний регистр без разделителей
func NormalizeSymbol(symbol string) string {
	r := strings.NewReplacer("-", "", "_", "", "/", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(symbol)))
}

// NormalizeSide приводит направление к LONG/SHORT, принимая buy/sell
func NormalizeSide(side string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case "LONG", "BUY":
		return "LONG", nil
	case "SHORT", "SELL":
		return "SHORT", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSide, side)
}

// ValidateFraction проверяет долю в диапазоне (0, 1]
func ValidateFraction(v decimal.Decimal) error {
	if v.Sign() <= 0 || v.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s", ErrInvalidFraction, v)
	}
	return nil
}

// ValidateQuantity проверяет что объём положителен
func ValidateQuantity(q decimal.Decimal) error {
	if q.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// ============================================================
// Агрегация ошибок
// ============================================================

// ValidationError - ошибка конкретного поля
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors собирает все ошибки, чтобы вернуть их одним ответом
type ValidationErrors []ValidationError

func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// AddError добавляет ошибку, если она не nil
func (v *ValidationErrors) AddError(field string, err error) {
	if err != nil {
		v.Add(field, err.Error())
	}
}

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}
