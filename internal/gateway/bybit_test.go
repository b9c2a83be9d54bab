package gateway

import (
	"errors"
	"testing"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"signalbot/internal/models"
)

func TestDecodeResult_Tickers(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		RetMsg:  "OK",
		Result: map[string]interface{}{
			"category": "spot",
			"list": []interface{}{
				map[string]interface{}{"symbol": "BTCUSDT", "lastPrice": "50123.45"},
			},
		},
	}

	var tickers bybitTickers
	if err := decodeResult(resp, &tickers); err != nil {
		t.Fatalf("decodeResult() error = %v", err)
	}

	price, err := tickers.lastPrice("BTCUSDT")
	if err != nil {
		t.Fatalf("lastPrice() error = %v", err)
	}
	if !price.Equal(d("50123.45")) {
		t.Errorf("price = %s, want 50123.45", price)
	}

	if _, err := tickers.lastPrice("ETHUSDT"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestDecodeResult_RetCode(t *testing.T) {
	resp := &bybit_api.ServerResponse{RetCode: 10003, RetMsg: "API key is invalid."}

	var out bybitTickers
	err := decodeResult(resp, &out)

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if gwErr.Code != "10003" {
		t.Errorf("code = %s, want 10003", gwErr.Code)
	}
	if gwErr.Message != "API key is invalid." {
		t.Errorf("message = %q", gwErr.Message)
	}
}

func TestDecodeResult_InvalidType(t *testing.T) {
	var out bybitTickers
	if err := decodeResult("not a response", &out); err == nil {
		t.Error("expected error for invalid response type")
	}
}

func TestBybitWallet_Balance(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		Result: map[string]interface{}{
			"list": []interface{}{
				map[string]interface{}{
					"accountType": "UNIFIED",
					"coin": []interface{}{
						map[string]interface{}{"coin": "USDT", "walletBalance": "1234.5", "equity": "1240"},
						map[string]interface{}{"coin": "BTC", "walletBalance": "0.1"},
					},
				},
			},
		},
	}

	var wallet bybitWallet
	if err := decodeResult(resp, &wallet); err != nil {
		t.Fatalf("decodeResult() error = %v", err)
	}

	if got := wallet.balance("USDT"); !got.Equal(d("1234.5")) {
		t.Errorf("USDT balance = %s, want 1234.5", got)
	}
	if got := wallet.balance("ETH"); !got.IsZero() {
		t.Errorf("missing asset balance = %s, want 0", got)
	}
}

func TestBybitInstruments_StepSize(t *testing.T) {
	tests := []struct {
		name     string
		filter   map[string]interface{}
		expected string
		wantErr  bool
	}{
		{"spot base precision", map[string]interface{}{"basePrecision": "0.000001"}, "0.000001", false},
		{"linear qty step", map[string]interface{}{"qtyStep": "0.001", "basePrecision": "0.1"}, "0.001", false},
		{"empty", map[string]interface{}{}, "", true},
		{"zero", map[string]interface{}{"qtyStep": "0"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &bybit_api.ServerResponse{
				Result: map[string]interface{}{
					"list": []interface{}{
						map[string]interface{}{"symbol": "BTCUSDT", "lotSizeFilter": tt.filter},
					},
				},
			}
			var info bybitInstruments
			if err := decodeResult(resp, &info); err != nil {
				t.Fatalf("decodeResult() error = %v", err)
			}

			step, err := info.stepSize("BTCUSDT")
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got step %s", step)
				}
				return
			}
			if err != nil {
				t.Fatalf("stepSize() error = %v", err)
			}
			if !step.Equal(d(tt.expected)) {
				t.Errorf("step = %s, want %s", step, tt.expected)
			}
		})
	}
}

func TestBybitSide(t *testing.T) {
	if bybitSide(models.OrderSideBuy) != "Buy" {
		t.Error("BUY should map to Buy")
	}
	if bybitSide(models.OrderSideSell) != "Sell" {
		t.Error("SELL should map to Sell")
	}
}

func TestNewBybit_Defaults(t *testing.T) {
	b := NewBybit(BybitConfig{APIKey: "k", APISecret: "s", Testnet: true})
	if b.Name() != "bybit" {
		t.Errorf("Name() = %s", b.Name())
	}
	if b.category != "spot" {
		t.Errorf("category = %s, want spot", b.category)
	}
}
