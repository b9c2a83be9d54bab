package utils

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		wantErr bool
	}{
		{"valid BTCUSDT", "BTCUSDT", false},
		{"valid lowercase", "btcusdt", false},
		{"valid with hyphen", "BTC-USDT", false},
		{"valid with slash", "BTC/USDT", false},
		{"valid with numbers", "1INCHUSDT", false},

		{"empty", "", true},
		{"single char", "B", true},
		{"too long", "BTCUSDTBTCUSDTBTCUSDTBTCUSDTXXX", true},
		{"special chars", "BTC@USDT", true},
		{"spaces", "BTC USDT", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSymbol(tt.symbol)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSymbol(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSymbol) {
				t.Errorf("expected ErrInvalidSymbol, got %v", err)
			}
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"btcusdt", "BTCUSDT"},
		{"btc-usdt", "BTCUSDT"},
		{"BTC_USDT", "BTCUSDT"},
		{"btc/usdt", "BTCUSDT"},
		{" Eth-Usdt ", "ETHUSDT"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeSymbol(tt.input); got != tt.expected {
				t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeSide(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"LONG", "LONG", false},
		{"long", "LONG", false},
		{"buy", "LONG", false},
		{"SHORT", "SHORT", false},
		{"Sell", "SHORT", false},
		{"hold", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeSide(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeSide(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("NormalizeSide(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateFraction(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"0.05", false},
		{"1", false},
		{"0", true},
		{"-0.1", true},
		{"1.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateFraction(decimal.RequireFromString(tt.value))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFraction(%s) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors

	errs.Add("field1", "error1")
	errs.AddError("field2", nil)
	errs.AddError("field3", ErrInvalidSymbol)

	if !errs.HasErrors() {
		t.Error("ValidationErrors.HasErrors() = false, want true")
	}
	if len(errs) != 2 {
		t.Errorf("ValidationErrors length = %d, want 2", len(errs))
	}
	if errs.Error() != "field1: error1; field3: invalid symbol" {
		t.Errorf("unexpected Error(): %q", errs.Error())
	}
}
