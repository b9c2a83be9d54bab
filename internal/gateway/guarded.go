package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signalbot/internal/models"
	"signalbot/pkg/ratelimit"
	"signalbot/pkg/retry"
	"signalbot/pkg/utils"
)

// DefaultCallTimeout - таймаут одной попытки вызова площадки
const DefaultCallTimeout = 10 * time.Second

// GuardedConfig - параметры защитной обёртки
type GuardedConfig struct {
	CallTimeout time.Duration          // таймаут одной попытки
	ReadPolicy  retry.Policy           // повторы для чтений (цена, баланс, шаг)
	Limiter     *ratelimit.MultiLimiter // nil = без ограничения частоты
	Logger      *utils.Logger
}

// Guarded - Gateway с таймаутом на каждый вызов, ограничением частоты,
// повторами чтений и метриками.
//
// Размещение ордера выполняется ровно один раз: повтор рыночного ордера
// после неясного ответа может исполнить его дважды.
type Guarded struct {
	inner   Gateway
	timeout time.Duration
	policy  retry.Policy
	limiter *ratelimit.MultiLimiter
	log     *utils.Logger
}

// NewGuarded оборачивает inner
func NewGuarded(inner Gateway, cfg GuardedConfig) *Guarded {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.L()
	}

	g := &Guarded{
		inner:   inner,
		timeout: cfg.CallTimeout,
		policy:  cfg.ReadPolicy,
		limiter: cfg.Limiter,
		log:     cfg.Logger.WithComponent("gateway").WithVenue(inner.Name()),
	}
	if g.policy.MaxAttempts == 0 {
		g.policy = retry.DefaultPolicy()
	}
	return g
}

// Name возвращает имя обёрнутой площадки
func (g *Guarded) Name() string {
	return g.inner.Name()
}

// GetPrice - чтение с повторами
func (g *Guarded) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return guardedRead(ctx, g, "get_price", ratelimit.CategoryMarket, func(ctx context.Context) (decimal.Decimal, error) {
		return g.inner.GetPrice(ctx, symbol)
	})
}

// GetBalance - чтение с повторами
func (g *Guarded) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return guardedRead(ctx, g, "get_balance", ratelimit.CategoryAccount, func(ctx context.Context) (decimal.Decimal, error) {
		return g.inner.GetBalance(ctx, asset)
	})
}

// GetSymbolStepSize - чтение с повторами
func (g *Guarded) GetSymbolStepSize(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return guardedRead(ctx, g, "get_step_size", ratelimit.CategoryMarket, func(ctx context.Context) (decimal.Decimal, error) {
		return g.inner.GetSymbolStepSize(ctx, symbol)
	})
}

// PlaceMarketOrder - одна попытка без повторов
func (g *Guarded) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (*Order, error) {
	const op = "place_order"
	start := time.Now()

	order, err := retry.DoValue(ctx, retry.NoRetry(), func(ctx context.Context) (*Order, error) {
		return attempt(ctx, g, op, ratelimit.CategoryOrders, func(ctx context.Context) (*Order, error) {
			return g.inner.PlaceMarketOrder(ctx, symbol, side, qty)
		})
	})

	g.observe(op, start, err)
	if err != nil {
		g.log.Warn("order placement failed",
			utils.Symbol(symbol),
			utils.Side(string(side)),
			utils.Quantity(qty),
			utils.Err(err),
		)
		return nil, unwrapSingle(err)
	}
	return order, nil
}

// ============================================================
// helpers
// ============================================================

func guardedRead[T any](ctx context.Context, g *Guarded, op, category string, call func(context.Context) (T, error)) (T, error) {
	start := time.Now()

	policy := g.policy
	policy.RetryIf = func(err error) bool {
		// неизвестный символ не исправится повтором
		return ctx.Err() == nil && !errors.Is(err, ErrSymbolNotFound)
	}
	policy.OnRetry = func(n int, err error, delay time.Duration) {
		CallRetries.WithLabelValues(g.Name(), op).Inc()
		g.log.Debug("retrying gateway call",
			zap.String("op", op),
			zap.Int("attempt", n),
			utils.Latency(delay),
			utils.Err(err),
		)
	}

	value, err := retry.DoValue(ctx, policy, func(ctx context.Context) (T, error) {
		return attempt(ctx, g, op, category, call)
	})
	g.observe(op, start, err)
	return value, err
}

// attempt выполняет одну попытку с собственным таймаутом.
// Истечение таймаута попытки превращается в ErrGatewayTimeout,
// отмена родительского контекста возвращается как есть.
func attempt[T any](ctx context.Context, g *Guarded, op, category string, call func(context.Context) (T, error)) (T, error) {
	var zero T

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, category); err != nil {
			return zero, err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	value, err := call(callCtx)
	if err == nil {
		return value, nil
	}
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return zero, &Error{Venue: g.Name(), Op: op, Message: "timeout after " + g.timeout.String(), Original: ErrGatewayTimeout}
	}
	return zero, err
}

func (g *Guarded) observe(op string, start time.Time, err error) {
	CallLatency.WithLabelValues(g.Name(), op).Observe(float64(time.Since(start).Milliseconds()))
	if err == nil {
		return
	}

	kind := "error"
	switch {
	case errors.Is(err, retry.ErrRetriesExhausted):
		kind = "exhausted"
	case errors.Is(err, ErrGatewayTimeout):
		kind = "timeout"
	}
	CallErrors.WithLabelValues(g.Name(), op, kind).Inc()
}

// unwrapSingle снимает ExhaustedError после единственной попытки:
// для ордера "повторы исчерпаны" не несёт смысла.
func unwrapSingle(err error) error {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) && exhausted.Attempts <= 1 {
		return exhausted.Last
	}
	return err
}
