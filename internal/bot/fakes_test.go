package bot

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/gateway"
	"signalbot/internal/models"
	"signalbot/internal/repository"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================================
// In-memory хранилища для тестов ядра
// ============================================================

type fakeTrades struct {
	mu     sync.Mutex
	trades map[int]*models.Trade
	nextID int

	createErr error
	markErr   error
	countErr  error
	pnlErr    error
	openErr   error
}

func newFakeTrades() *fakeTrades {
	return &fakeTrades{trades: make(map[int]*models.Trade)}
}

func (f *fakeTrades) Create(trade *models.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, t := range f.trades {
		if t.SignalID == trade.SignalID {
			return repository.ErrTradeAlreadyExists
		}
	}
	f.nextID++
	trade.ID = f.nextID
	cp := *trade
	f.trades[trade.ID] = &cp
	return nil
}

func (f *fakeTrades) GetByID(id int) (*models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trades[id]
	if !ok {
		return nil, repository.ErrTradeNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTrades) GetOpen() ([]*models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	var out []*models.Trade
	for _, t := range f.trades {
		if t.IsOpen() {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTrades) MarkClosed(id int, exitPrice, pnl decimal.Decimal, reason string, closedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	t, ok := f.trades[id]
	if !ok || !t.IsOpen() {
		return repository.ErrTradeNotOpen
	}
	t.Status = models.TradeStatusClosed
	t.ExitPrice = decimal.NewNullDecimal(exitPrice)
	t.RealizedPnL = decimal.NewNullDecimal(pnl)
	t.CloseReason = reason
	t.ClosedAt = &closedAt
	return nil
}

func (f *fakeTrades) CountOpen() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, t := range f.trades {
		if t.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (f *fakeTrades) SumRealizedPnLSince(since time.Time) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pnlErr != nil {
		return decimal.Zero, f.pnlErr
	}
	sum := decimal.Zero
	for _, t := range f.trades {
		if t.Status == models.TradeStatusClosed && t.ClosedAt != nil && !t.ClosedAt.Before(since) {
			sum = sum.Add(t.RealizedPnL.Decimal)
		}
	}
	return sum, nil
}

func (f *fakeTrades) ExistsForSignal(signalID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.trades {
		if t.SignalID == signalID {
			return true, nil
		}
	}
	return false, nil
}

// seedOpen добавляет открытую сделку напрямую
func (f *fakeTrades) seedOpen(signalID int, symbol string, side models.Side, qty, entry, sl, tp decimal.Decimal) *models.Trade {
	t := &models.Trade{
		SignalID:   signalID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   qty,
		EntryPrice: entry,
		StopLoss:   sl,
		TakeProfit: tp,
		Status:     models.TradeStatusOpen,
		CreatedAt:  time.Now().UTC(),
	}
	if err := f.Create(t); err != nil {
		panic(err)
	}
	return t
}

// seedClosedPnL добавляет закрытую сегодня сделку с заданным PnL
func (f *fakeTrades) seedClosedPnL(signalID int, pnl decimal.Decimal) {
	now := time.Now().UTC()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.trades[f.nextID] = &models.Trade{
		ID:          f.nextID,
		SignalID:    signalID,
		Symbol:      "ETHUSDT",
		Side:        models.SideLong,
		Quantity:    d("1"),
		Status:      models.TradeStatusClosed,
		RealizedPnL: decimal.NewNullDecimal(pnl),
		ClosedAt:    &now,
	}
}

type fakePositions struct {
	mu        sync.Mutex
	positions map[string]*models.Position
	upsertErr error
	deleteErr error
}

func newFakePositions() *fakePositions {
	return &fakePositions{positions: make(map[string]*models.Position)}
}

func (f *fakePositions) Upsert(p *models.Position) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *p
	f.positions[p.Symbol] = &cp
	return nil
}

func (f *fakePositions) Delete(symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.positions, symbol)
	return nil
}

func (f *fakePositions) GetAll() ([]*models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Position
	for _, p := range f.positions {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakePositions) UpdateUnrealized(symbol string, pnl decimal.Decimal, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.positions[symbol]
	if !ok {
		return repository.ErrPositionNotFound
	}
	p.UnrealizedPnL = pnl
	p.UpdatedAt = at
	return nil
}

func (f *fakePositions) get(symbol string) (*models.Position, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.positions[symbol]
	return p, ok
}

type fakeSignals struct {
	mu       sync.Mutex
	signals  []*models.Signal
	rejected map[int]string
	trades   *fakeTrades
	listErr  error
}

func newFakeSignals(trades *fakeTrades) *fakeSignals {
	return &fakeSignals{rejected: make(map[int]string), trades: trades}
}

func (f *fakeSignals) add(sig *models.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sig.Processed = true
	f.signals = append(f.signals, sig)
}

func (f *fakeSignals) ListTradeable(threshold, limit int) ([]*models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Signal
	for _, s := range f.signals {
		if !s.Processed || s.Score < threshold {
			continue
		}
		if _, ok := f.rejected[s.ID]; ok {
			continue
		}
		if exists, _ := f.trades.ExistsForSignal(s.ID); exists {
			continue
		}
		cp := *s
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSignals) MarkRejected(signalID int, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected[signalID] = reason
	return nil
}

func (f *fakeSignals) rejection(signalID int) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rejected[signalID]
	return r, ok
}

type fakeFailedTasks struct {
	mu        sync.Mutex
	tasks     []*models.FailedTask
	createErr error
}

func (f *fakeFailedTasks) Create(task *models.FailedTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	task.ID = len(f.tasks) + 1
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeFailedTasks) DeleteOlderThan(before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.tasks[:0]
	var removed int64
	for _, t := range f.tasks {
		if t.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	f.tasks = kept
	return removed, nil
}

func (f *fakeFailedTasks) operations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t.Operation)
	}
	return out
}

// ============================================================
// Сборка ядра поверх бумажной площадки
// ============================================================

type testEnv struct {
	paper     *gateway.Paper
	trades    *fakeTrades
	positions *fakePositions
	signals   *fakeSignals
	failed    *fakeFailedTasks
	notifs    chan *models.Notification

	risk     *RiskGate
	queue    *ApprovalQueue
	ledger   *PositionLedger
	dl       *DeadLetter
	executor *Executor
}

func defaultSizing() SizingConfig {
	return SizingConfig{
		PositionSizePercent: d("0.1"),
		StopLossPercent:     d("0.02"),
		TakeProfitPercent:   d("0.04"),
	}
}

func defaultLimits() RiskLimits {
	return RiskLimits{MaxDailyDrawdown: d("0.05"), MaxOpenPositions: 5}
}

// newTestEnv: баланс 10000 USDT, BTCUSDT по 50000 с шагом 0.001
func newTestEnv(t *testing.T, manualOverride bool) *testEnv {
	t.Helper()

	paper := gateway.NewPaper("USDT", d("10000"))
	paper.SetPrice("BTCUSDT", d("50000"))
	paper.SetStepSize("BTCUSDT", d("0.001"))

	env := &testEnv{
		paper:     paper,
		trades:    newFakeTrades(),
		positions: newFakePositions(),
		failed:    &fakeFailedTasks{},
		notifs:    make(chan *models.Notification, 64),
	}
	env.signals = newFakeSignals(env.trades)
	env.dl = NewDeadLetter(env.failed, nil)
	env.risk = NewRiskGate(paper, env.trades, "USDT", defaultLimits(), manualOverride, nil)
	env.queue = NewApprovalQueue()
	env.ledger = NewPositionLedger(env.positions, nil)
	env.executor = NewExecutor(ExecutorDeps{
		Gateway:       paper,
		Risk:          env.risk,
		Queue:         env.queue,
		Ledger:        env.ledger,
		Trades:        env.trades,
		Signals:       env.signals,
		DeadLetter:    env.dl,
		Notifications: env.notifs,
		QuoteAsset:    "USDT",
	}, defaultSizing())
	return env
}

// drainTypes вычитывает накопленные уведомления и возвращает их типы
func (env *testEnv) drainTypes() []string {
	var out []string
	for {
		select {
		case n := <-env.notifs:
			out = append(out, n.Type)
		default:
			return out
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
