package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/models"
)

// Gateway определяет интерфейс площадки исполнения:
// цены, баланс, шаг количества и рыночные ордера.
//
// Площадка считается ненадёжным удалённым сервисом. Собственных таймаутов
// у реализаций нет, их накладывает Guarded.
type Gateway interface {
	// Name возвращает имя площадки (bybit, paper)
	Name() string

	// GetPrice получает последнюю цену символа
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	// GetBalance получает баланс актива (обычно USDT)
	GetBalance(ctx context.Context, asset string) (decimal.Decimal, error)

	// GetSymbolStepSize получает минимальный шаг количества для символа
	GetSymbolStepSize(ctx context.Context, symbol string) (decimal.Decimal, error)

	// PlaceMarketOrder размещает рыночный ордер
	PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (*Order, error)
}

// Order - подтверждение ордера от площадки
type Order struct {
	ID        string           `json:"id"`
	Symbol    string           `json:"symbol"`
	Side      models.OrderSide `json:"side"`
	Quantity  decimal.Decimal  `json:"quantity"`
	FilledQty decimal.Decimal  `json:"filled_qty"`
	AvgPrice  decimal.Decimal  `json:"avg_price"` // ноль, если площадка не вернула цену исполнения
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// Order status constants
const (
	OrderStatusNew      = "new" // принят, исполнение не подтверждено
	OrderStatusFilled   = "filled"
	OrderStatusRejected = "rejected"
)

// ErrGatewayTimeout - вызов площадки не уложился в отведённое время
var ErrGatewayTimeout = errors.New("gateway call timed out")

// ErrSymbolNotFound - площадка не знает символ
var ErrSymbolNotFound = errors.New("symbol not found")

// Error представляет ошибку от площадки
type Error struct {
	Venue    string
	Op       string
	Code     string
	Message  string
	Original error
}

func (e *Error) Error() string {
	msg := e.Venue + ": " + e.Message
	if e.Op != "" {
		msg = e.Venue + " " + e.Op + ": " + e.Message
	}
	if e.Code != "" {
		msg += " (code " + e.Code + ")"
	}
	return msg
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *Error) Unwrap() error {
	return e.Original
}

// IsGatewayError - true для любой ошибки площадки, включая таймаут
func IsGatewayError(err error) bool {
	if err == nil {
		return false
	}
	var gwErr *Error
	return errors.As(err, &gwErr) || errors.Is(err, ErrGatewayTimeout)
}
