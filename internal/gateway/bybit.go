package gateway

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"signalbot/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BybitDemoURL - демо-торговля Bybit (виртуальный баланс на боевых котировках)
const BybitDemoURL = "https://api-demo.bybit.com"

// BybitConfig - параметры подключения к Bybit V5
type BybitConfig struct {
	APIKey    string
	APISecret string
	Testnet   bool
	BaseURL   string // переопределяет Testnet, если задан
	Category  string // spot (по умолчанию) или linear
}

// Bybit реализует Gateway поверх Unified Trading API (V5)
type Bybit struct {
	client   *bybit_api.Client
	category string

	mu    sync.RWMutex
	steps map[string]decimal.Decimal // кэш шага количества: инструменты меняются редко
}

// NewBybit создает клиент Bybit
func NewBybit(cfg BybitConfig) *Bybit {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = bybit_api.MAINNET
		if cfg.Testnet {
			baseURL = bybit_api.TESTNET
		}
	}

	category := cfg.Category
	if category == "" {
		category = "spot"
	}

	return &Bybit{
		client:   bybit_api.NewBybitHttpClient(cfg.APIKey, cfg.APISecret, bybit_api.WithBaseURL(baseURL)),
		category: category,
		steps:    make(map[string]decimal.Decimal),
	}
}

// Name возвращает имя площадки
func (b *Bybit) Name() string {
	return "bybit"
}

// GetPrice получает lastPrice из /v5/market/tickers
func (b *Bybit) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	params := map[string]interface{}{
		"category": b.category,
		"symbol":   symbol,
	}

	result, err := b.client.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return decimal.Zero, b.wrap("get_price", err)
	}

	var tickers bybitTickers
	if err := decodeResult(result, &tickers); err != nil {
		return decimal.Zero, b.wrap("get_price", err)
	}

	return tickers.lastPrice(symbol)
}

// GetBalance получает walletBalance актива на едином счёте
func (b *Bybit) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
		"coin":        asset,
	}

	result, err := b.client.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	if err != nil {
		return decimal.Zero, b.wrap("get_balance", err)
	}

	var wallet bybitWallet
	if err := decodeResult(result, &wallet); err != nil {
		return decimal.Zero, b.wrap("get_balance", err)
	}

	return wallet.balance(asset), nil
}

// GetSymbolStepSize получает шаг количества из /v5/market/instruments-info
func (b *Bybit) GetSymbolStepSize(ctx context.Context, symbol string) (decimal.Decimal, error) {
	b.mu.RLock()
	step, ok := b.steps[symbol]
	b.mu.RUnlock()
	if ok {
		return step, nil
	}

	params := map[string]interface{}{
		"category": b.category,
		"symbol":   symbol,
	}

	result, err := b.client.NewUtaBybitServiceWithParams(params).GetInstrumentInfo(ctx)
	if err != nil {
		return decimal.Zero, b.wrap("get_step_size", err)
	}

	var info bybitInstruments
	if err := decodeResult(result, &info); err != nil {
		return decimal.Zero, b.wrap("get_step_size", err)
	}

	step, err = info.stepSize(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	b.mu.Lock()
	b.steps[symbol] = step
	b.mu.Unlock()

	return step, nil
}

// PlaceMarketOrder размещает рыночный ордер.
// orderLinkId генерируется заранее, чтобы ордер можно было найти на площадке при сверке.
func (b *Bybit) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (*Order, error) {
	linkID := uuid.NewString()
	params := map[string]interface{}{
		"category":    b.category,
		"symbol":      symbol,
		"side":        bybitSide(side),
		"orderType":   "Market",
		"qty":         qty.String(),
		"orderLinkId": linkID,
	}
	if b.category == "spot" {
		// по умолчанию спотовая покупка трактует qty в котируемой валюте
		params["marketUnit"] = "baseCoin"
	}

	result, err := b.client.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return nil, b.wrap("place_order", err)
	}

	var placed bybitPlacedOrder
	if err := decodeResult(result, &placed); err != nil {
		return nil, b.wrap("place_order", err)
	}
	if placed.OrderID == "" {
		return nil, &Error{Venue: b.Name(), Op: "place_order", Message: "empty order id, link id " + linkID}
	}

	return &Order{
		ID:        placed.OrderID,
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		FilledQty: qty,
		Status:    OrderStatusNew,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (b *Bybit) wrap(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		e.Venue = b.Name()
		e.Op = op
		return e
	}
	return &Error{Venue: b.Name(), Op: op, Message: err.Error(), Original: err}
}

func bybitSide(side models.OrderSide) string {
	if side == models.OrderSideBuy {
		return "Buy"
	}
	return "Sell"
}

// ============================================================
// Разбор ответов V5
// ============================================================

// decodeResult проверяет retCode и раскладывает result в out
func decodeResult(response interface{}, out interface{}) error {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok || serverResp == nil {
		return &Error{Message: "invalid response type"}
	}

	if serverResp.RetCode != 0 {
		return &Error{
			Code:    strconv.Itoa(serverResp.RetCode),
			Message: serverResp.RetMsg,
		}
	}

	raw, err := json.Marshal(serverResp.Result)
	if err != nil {
		return &Error{Message: "marshal result", Original: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Message: "unmarshal result", Original: err}
	}
	return nil
}

type bybitTickers struct {
	Category string `json:"category"`
	List     []struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
	} `json:"list"`
}

func (t bybitTickers) lastPrice(symbol string) (decimal.Decimal, error) {
	for _, item := range t.List {
		if !strings.EqualFold(item.Symbol, symbol) {
			continue
		}
		price, err := decimal.NewFromString(item.LastPrice)
		if err != nil {
			return decimal.Zero, &Error{Venue: "bybit", Op: "get_price", Message: "bad lastPrice " + item.LastPrice, Original: err}
		}
		return price, nil
	}
	return decimal.Zero, &Error{Venue: "bybit", Op: "get_price", Message: "unknown symbol " + symbol, Original: ErrSymbolNotFound}
}

type bybitWallet struct {
	List []struct {
		AccountType string `json:"accountType"`
		Coin        []struct {
			Coin          string `json:"coin"`
			WalletBalance string `json:"walletBalance"`
			Equity        string `json:"equity"`
		} `json:"coin"`
	} `json:"list"`
}

// balance - сумма walletBalance актива по счетам; нет актива = ноль
func (w bybitWallet) balance(asset string) decimal.Decimal {
	total := decimal.Zero
	for _, account := range w.List {
		for _, coin := range account.Coin {
			if !strings.EqualFold(coin.Coin, asset) {
				continue
			}
			if v, err := decimal.NewFromString(coin.WalletBalance); err == nil {
				total = total.Add(v)
			}
		}
	}
	return total
}

type bybitInstruments struct {
	List []struct {
		Symbol        string `json:"symbol"`
		LotSizeFilter struct {
			BasePrecision string `json:"basePrecision"` // spot
			QtyStep       string `json:"qtyStep"`       // linear
			MinOrderQty   string `json:"minOrderQty"`
		} `json:"lotSizeFilter"`
	} `json:"list"`
}

func (i bybitInstruments) stepSize(symbol string) (decimal.Decimal, error) {
	for _, item := range i.List {
		if !strings.EqualFold(item.Symbol, symbol) {
			continue
		}
		raw := item.LotSizeFilter.QtyStep
		if raw == "" {
			raw = item.LotSizeFilter.BasePrecision
		}
		step, err := decimal.NewFromString(raw)
		if err != nil || step.Sign() <= 0 {
			return decimal.Zero, &Error{Venue: "bybit", Op: "get_step_size", Message: "bad step " + raw, Original: err}
		}
		return step, nil
	}
	return decimal.Zero, &Error{Venue: "bybit", Op: "get_step_size", Message: "unknown symbol " + symbol, Original: ErrSymbolNotFound}
}

type bybitPlacedOrder struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}
