package gateway

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/models"
)

// DefaultPaperStep - шаг количества для символов без явной настройки
var DefaultPaperStep = decimal.RequireFromString("0.000001")

// Paper - бумажная площадка: ордера исполняются мгновенно по последней цене
//
// Цены выставляются извне (SetPrice). Баланс котируемого
// актива меняется на стоимость исполненных ордеров.
type Paper struct {
	mu       sync.Mutex
	prices   map[string]decimal.Decimal
	steps    map[string]decimal.Decimal
	balances map[string]decimal.Decimal
	quote    string
	failures map[string]error
	orders   []*Order
	seq      int
}

// NewPaper создает бумажную площадку с начальным балансом котируемого актива
func NewPaper(quoteAsset string, balance decimal.Decimal) *Paper {
	quote := strings.ToUpper(quoteAsset)
	if quote == "" {
		quote = "USDT"
	}
	return &Paper{
		prices:   make(map[string]decimal.Decimal),
		steps:    make(map[string]decimal.Decimal),
		balances: map[string]decimal.Decimal{quote: balance},
		quote:    quote,
		failures: make(map[string]error),
	}
}

// Name возвращает имя площадки
func (p *Paper) Name() string {
	return "paper"
}

// SetPrice выставляет последнюю цену символа
func (p *Paper) SetPrice(symbol string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[strings.ToUpper(symbol)] = price
}

// SetStepSize выставляет шаг количества символа
func (p *Paper) SetStepSize(symbol string, step decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps[strings.ToUpper(symbol)] = step
}

// SetBalance выставляет баланс актива
func (p *Paper) SetBalance(asset string, amount decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[strings.ToUpper(asset)] = amount
}

// FailNext заставляет следующий вызов op (get_price, get_balance, get_step_size, place_order)
// вернуть err. Используется в тестах и при ручной проверке деградации.
func (p *Paper) FailNext(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = err
}

// Orders возвращает копию журнала исполненных ордеров
func (p *Paper) Orders() []*Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Order, len(p.orders))
	copy(out, p.orders)
	return out
}

// GetPrice возвращает выставленную цену
func (p *Paper) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.takeFailure("get_price"); err != nil {
		return decimal.Zero, err
	}
	price, ok := p.prices[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Zero, &Error{Venue: p.Name(), Op: "get_price", Message: "unknown symbol " + symbol, Original: ErrSymbolNotFound}
	}
	return price, nil
}

// GetBalance возвращает баланс актива; неизвестный актив = ноль
func (p *Paper) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.takeFailure("get_balance"); err != nil {
		return decimal.Zero, err
	}
	return p.balances[strings.ToUpper(asset)], nil
}

// GetSymbolStepSize возвращает шаг символа или DefaultPaperStep
func (p *Paper) GetSymbolStepSize(ctx context.Context, symbol string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.takeFailure("get_step_size"); err != nil {
		return decimal.Zero, err
	}
	if step, ok := p.steps[strings.ToUpper(symbol)]; ok {
		return step, nil
	}
	return DefaultPaperStep, nil
}

// PlaceMarketOrder исполняет ордер целиком по текущей цене
func (p *Paper) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (*Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.takeFailure("place_order"); err != nil {
		return nil, err
	}
	if qty.Sign() <= 0 {
		return nil, &Error{Venue: p.Name(), Op: "place_order", Code: "invalid_qty", Message: "quantity must be positive"}
	}

	price, ok := p.prices[strings.ToUpper(symbol)]
	if !ok {
		return nil, &Error{Venue: p.Name(), Op: "place_order", Message: "unknown symbol " + symbol, Original: ErrSymbolNotFound}
	}

	notional := price.Mul(qty)
	if side == models.OrderSideBuy {
		p.balances[p.quote] = p.balances[p.quote].Sub(notional)
	} else {
		p.balances[p.quote] = p.balances[p.quote].Add(notional)
	}

	p.seq++
	order := &Order{
		ID:        "paper-" + strconv.Itoa(p.seq),
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		FilledQty: qty,
		AvgPrice:  price,
		Status:    OrderStatusFilled,
		CreatedAt: time.Now().UTC(),
	}
	p.orders = append(p.orders, order)
	return order, nil
}

// takeFailure вызывается под p.mu
func (p *Paper) takeFailure(op string) error {
	err, ok := p.failures[op]
	if !ok {
		return nil
	}
	delete(p.failures, op)
	return err
}
