package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrRetriesExhausted - все попытки израсходованы.
// Возвращается обёрнутой в *ExhaustedError вместе с последней ошибкой операции.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Policy - явная политика повторов для операций со шлюзом
//
// Экспоненциальный backoff с jitter:
// delay = min(BaseDelay * Multiplier^attempt, MaxDelay) ± Jitter
type Policy struct {
	// MaxAttempts - общее число попыток, включая первую (минимум 1)
	MaxAttempts int

	// BaseDelay - задержка перед второй попыткой
	BaseDelay time.Duration

	// MaxDelay - потолок задержки
	MaxDelay time.Duration

	// Multiplier - множитель экспоненциального роста
	Multiplier float64

	// Jitter - доля случайной вариации задержки (0.0 - 1.0)
	Jitter float64

	// RetryIf решает, стоит ли повторять ошибку. nil = повторять всё, кроме Permanent
	RetryIf func(error) bool

	// OnRetry вызывается перед каждым повтором
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy: 3 попытки, 1s базовая задержка, потолок 30s
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.1,
	}
}

// NoRetry - одна попытка. Используется для размещения ордеров:
// повтор рыночного ордера может исполнить его дважды.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

func (p *Policy) normalize() {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Jitter > 1 {
		p.Jitter = 1
	}
}

// Delay вычисляет задержку перед попыткой attempt+1 (attempt с нуля)
func (p Policy) Delay(attempt int) time.Duration {
	p.normalize()

	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		delay += delay * p.Jitter * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ============================================================
// Ошибки
// ============================================================

// ExhaustedError - операция не удалась ни в одной из попыток
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap позволяет errors.Is проверять и ErrRetriesExhausted, и исходную ошибку
func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Last}
}

// PermanentError оборачивает ошибку которую не нужно retry'ить
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent помечает ошибку как неповторяемую
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent проверяет, помечена ли ошибка как неповторяемая
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// RetryIfNotContext не retry'ит ошибки контекста (cancel, timeout)
func RetryIfNotContext(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// ============================================================
// Выполнение
// ============================================================

// Do выполняет операцию по политике.
//
// Возвращает:
//   - nil: операция успешна
//   - ctx.Err(): контекст отменён до первой попытки
//   - исходную ошибку: ошибка Permanent или отклонена RetryIf
//   - *ExhaustedError: все MaxAttempts попыток неудачны
func Do(ctx context.Context, p Policy, operation func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}

// DoValue - Do для операций, возвращающих значение
//
//	price, err := retry.DoValue(ctx, policy, func(ctx context.Context) (decimal.Decimal, error) {
//	    return gw.GetPrice(ctx, symbol)
//	})
func DoValue[T any](ctx context.Context, p Policy, operation func(ctx context.Context) (T, error)) (T, error) {
	p.normalize()

	var zero T
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, &ExhaustedError{Attempts: attempt, Last: lastErr}
			}
			return zero, err
		}

		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if IsPermanent(err) {
			return zero, err
		}
		if p.RetryIf != nil && !p.RetryIf(err) {
			return zero, err
		}

		// Последняя попытка - не ждём
		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, &ExhaustedError{Attempts: attempt + 1, Last: lastErr}
		}
	}

	return zero, &ExhaustedError{Attempts: p.MaxAttempts, Last: lastErr}
}
