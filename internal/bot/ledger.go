package bot

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/models"
	"signalbot/pkg/utils"
)

// Ошибки леджера
var (
	ErrPositionNotFound = errors.New("position not found")
	ErrZeroFill         = errors.New("fill quantity must be non-zero")
	ErrInvalidFillPrice = errors.New("fill price must be positive")
	ErrLedgerPersist    = errors.New("ledger persistence failed")
)

// FillResult - итог применения исполнения
type FillResult struct {
	Position    *models.Position `json:"position,omitempty"` // nil если позиция закрылась в ноль
	RealizedPnL decimal.Decimal  `json:"realized_pnl"`       // PnL закрытой части по старой средней
	Flipped     bool             `json:"flipped"`            // знак позиции сменился
}

// PositionLedger - чистая экспозиция по символам
//
// Размер со знаком: > 0 лонг, < 0 шорт. Позиция с нулевым размером удаляется.
// Исполнения применяются под одним мьютексом в порядке вызова, запись в хранилище
// сквозная (write-through) под тем же мьютексом.
type PositionLedger struct {
	mu        sync.Mutex
	positions map[string]*models.Position
	store     PositionStore // nil = только память
	now       func() time.Time
	log       *utils.Logger
}

// NewPositionLedger создает леджер
func NewPositionLedger(store PositionStore, log *utils.Logger) *PositionLedger {
	if log == nil {
		log = utils.L()
	}
	return &PositionLedger{
		positions: make(map[string]*models.Position),
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log.WithComponent("ledger"),
	}
}

// Load восстанавливает состояние из хранилища при старте
func (l *PositionLedger) Load() error {
	if l.store == nil {
		return nil
	}

	positions, err := l.store.GetAll()
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.positions = make(map[string]*models.Position, len(positions))
	for _, p := range positions {
		if p.Size.IsZero() {
			continue
		}
		l.positions[p.Symbol] = p
	}
	OpenPositions.Set(float64(len(l.positions)))
	l.log.Info("ledger loaded", utils.Int("positions", len(l.positions)))
	return nil
}

// GetBySymbol возвращает копию позиции
func (l *PositionLedger) GetBySymbol(symbol string) (*models.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[symbol]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// SnapshotAll возвращает копии всех позиций, отсортированные по символу
func (l *PositionLedger) SnapshotAll() []*models.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*models.Position, 0, len(l.positions))
	for _, p := range l.positions {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// ApplyFill применяет исполнение signedQty по цене price.
//
//   - позиции нет: size = q, avg = price
//   - тот же знак или сокращение: avg = (avg*size + price*q) / (size + q)
//   - size + q == 0: позиция удаляется
//   - смена знака: PnL реализуется на min(|size|, |q|) по старой средней,
//     остаток открывается по price
//
// Состояние в памяти меняется до записи в хранилище: исполнение уже произошло
// на площадке. Ошибка записи возвращается обёрнутой в ErrLedgerPersist.
func (l *PositionLedger) ApplyFill(symbol string, signedQty, price decimal.Decimal) (*FillResult, error) {
	if signedQty.IsZero() {
		return nil, ErrZeroFill
	}
	if price.Sign() <= 0 {
		return nil, ErrInvalidFillPrice
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	result := &FillResult{RealizedPnL: decimal.Zero}

	old, exists := l.positions[symbol]
	var next *models.Position

	switch {
	case !exists:
		next = &models.Position{Symbol: symbol, Size: signedQty, EntryPrice: price, Leverage: 1}

	default:
		oldSize := old.Size
		newSize := oldSize.Add(signedQty)
		sameSign := oldSize.Sign() == signedQty.Sign()

		if !sameSign {
			closedQty := utils.MinAbs(oldSize, signedQty)
			result.RealizedPnL = utils.CalculatePNL(oldSize.Sign() > 0, old.EntryPrice, price, closedQty)
		}

		switch {
		case newSize.IsZero():
			next = nil
		case !sameSign && newSize.Sign() != oldSize.Sign():
			result.Flipped = true
			next = &models.Position{Symbol: symbol, Size: newSize, EntryPrice: price, Leverage: old.Leverage}
		default:
			avg := old.EntryPrice.Mul(oldSize).Add(price.Mul(signedQty)).Div(newSize)
			next = &models.Position{Symbol: symbol, Size: newSize, EntryPrice: avg, Leverage: old.Leverage}
		}
	}

	if next == nil {
		delete(l.positions, symbol)
	} else {
		if next.Leverage == 0 {
			next.Leverage = 1
		}
		next.UnrealizedPnL = next.Unrealized(price)
		next.UpdatedAt = now
		l.positions[symbol] = next
		cp := *next
		result.Position = &cp
	}
	OpenPositions.Set(float64(len(l.positions)))

	if err := l.persist(symbol, next); err != nil {
		l.log.Error("ledger write-through failed",
			utils.Symbol(symbol),
			utils.Quantity(signedQty),
			utils.Price(price),
			utils.Err(err),
		)
		return result, fmt.Errorf("%w: %s: %v", ErrLedgerPersist, symbol, err)
	}

	return result, nil
}

// RefreshUnrealizedPnL пересчитывает нереализованный PnL по текущей цене
func (l *PositionLedger) RefreshUnrealizedPnL(symbol string, currentPrice decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[symbol]
	if !ok {
		return decimal.Zero, ErrPositionNotFound
	}

	now := l.now()
	p.UnrealizedPnL = p.Unrealized(currentPrice)
	p.UpdatedAt = now
	UnrealizedPnL.WithLabelValues(symbol).Set(p.UnrealizedPnL.InexactFloat64())

	if l.store != nil {
		if err := l.store.UpdateUnrealized(symbol, p.UnrealizedPnL, now); err != nil {
			return p.UnrealizedPnL, fmt.Errorf("%w: %s: %v", ErrLedgerPersist, symbol, err)
		}
	}
	return p.UnrealizedPnL, nil
}

// persist вызывается под l.mu
func (l *PositionLedger) persist(symbol string, p *models.Position) error {
	if l.store == nil {
		return nil
	}
	if p == nil {
		UnrealizedPnL.DeleteLabelValues(symbol)
		return l.store.Delete(symbol)
	}
	cp := *p
	return l.store.Upsert(&cp)
}
