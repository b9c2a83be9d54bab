package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/models"
	"signalbot/pkg/ratelimit"
	"signalbot/pkg/retry"
)

// flakyGateway падает failures раз подряд, затем отвечает
type flakyGateway struct {
	failures int32
	calls    int32
	block    bool
	err      error
}

func (f *flakyGateway) Name() string { return "flaky" }

func (f *flakyGateway) call(ctx context.Context) error {
	n := atomic.AddInt32(&f.calls, 1)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if n <= f.failures {
		if f.err != nil {
			return f.err
		}
		return &Error{Venue: "flaky", Message: "temporary"}
	}
	return nil
}

func (f *flakyGateway) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := f.call(ctx); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(100), nil
}

func (f *flakyGateway) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	if err := f.call(ctx); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(1000), nil
}

func (f *flakyGateway) GetSymbolStepSize(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := f.call(ctx); err != nil {
		return decimal.Zero, err
	}
	return decimal.RequireFromString("0.001"), nil
}

func (f *flakyGateway) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (*Order, error) {
	if err := f.call(ctx); err != nil {
		return nil, err
	}
	return &Order{ID: "1", Symbol: symbol, Side: side, Quantity: qty, Status: OrderStatusFilled}, nil
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestGuarded_ReadRetries(t *testing.T) {
	inner := &flakyGateway{failures: 2}
	g := NewGuarded(inner, GuardedConfig{CallTimeout: time.Second, ReadPolicy: fastPolicy(3)})

	price, err := g.GetPrice(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("GetPrice() error = %v", err)
	}
	if !price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("price = %s, want 100", price)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestGuarded_ReadExhausted(t *testing.T) {
	inner := &flakyGateway{failures: 10}
	g := NewGuarded(inner, GuardedConfig{CallTimeout: time.Second, ReadPolicy: fastPolicy(3)})

	_, err := g.GetBalance(context.Background(), "USDT")
	if !errors.Is(err, retry.ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if !IsGatewayError(err) {
		t.Error("exhausted error should still unwrap to a gateway error")
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestGuarded_UnknownSymbolNotRetried(t *testing.T) {
	inner := &flakyGateway{failures: 10, err: &Error{Venue: "flaky", Message: "unknown", Original: ErrSymbolNotFound}}
	g := NewGuarded(inner, GuardedConfig{CallTimeout: time.Second, ReadPolicy: fastPolicy(3)})

	_, err := g.GetSymbolStepSize(context.Background(), "NOPE")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestGuarded_Timeout(t *testing.T) {
	inner := &flakyGateway{block: true}
	g := NewGuarded(inner, GuardedConfig{CallTimeout: 20 * time.Millisecond, ReadPolicy: fastPolicy(2)})

	start := time.Now()
	_, err := g.GetPrice(context.Background(), "BTCUSDT")
	if !errors.Is(err, ErrGatewayTimeout) {
		t.Fatalf("expected ErrGatewayTimeout, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2 (timeouts are retried)", inner.calls)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout took too long: %v", time.Since(start))
	}
}

func TestGuarded_OrderNeverRetried(t *testing.T) {
	inner := &flakyGateway{failures: 1}
	g := NewGuarded(inner, GuardedConfig{CallTimeout: time.Second, ReadPolicy: fastPolicy(5)})

	_, err := g.PlaceMarketOrder(context.Background(), "BTCUSDT", models.OrderSideBuy, decimal.NewFromInt(1))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, retry.ErrRetriesExhausted) {
		t.Error("single-attempt order error should not report exhausted retries")
	}
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Errorf("expected *Error, got %T", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestGuarded_OrderSuccess(t *testing.T) {
	inner := &flakyGateway{}
	g := NewGuarded(inner, GuardedConfig{
		CallTimeout: time.Second,
		Limiter:     ratelimit.NewMultiLimiter().Add(ratelimit.CategoryOrders, 100, 10),
	})

	order, err := g.PlaceMarketOrder(context.Background(), "BTCUSDT", models.OrderSideSell, decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("PlaceMarketOrder() error = %v", err)
	}
	if order.Side != models.OrderSideSell {
		t.Errorf("side = %s, want SELL", order.Side)
	}
	if g.Name() != "flaky" {
		t.Errorf("Name() = %s, want flaky", g.Name())
	}
}

func TestGuarded_CancelledContext(t *testing.T) {
	inner := &flakyGateway{}
	g := NewGuarded(inner, GuardedConfig{ReadPolicy: fastPolicy(3)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.GetPrice(ctx, "BTCUSDT")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("calls = %d, want 0", inner.calls)
	}
}
