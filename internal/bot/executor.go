package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/gateway"
	"signalbot/internal/models"
	"signalbot/internal/repository"
	"signalbot/pkg/utils"
)

// Ошибки исполнителя
var (
	ErrSignalInFlight  = errors.New("signal is already being processed")
	ErrCloseInProgress = errors.New("trade close already in progress")
	ErrTradeNotOpen    = errors.New("trade is not open")
	ErrInvalidSizing   = errors.New("invalid sizing config")
	ErrGatewayFailure  = errors.New("gateway failure")
	ErrAmbiguousOrder  = errors.New("order outcome unknown")
)

// Исходы обработки сигнала
const (
	OutcomeOpened   = "opened"
	OutcomePending  = "pending"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Причины отказа до риск-гейта
const (
	ReasonQuantityTooSmall = "quantity_too_small"
)

// SizingConfig - параметры расчёта объёма и SL/TP
type SizingConfig struct {
	PositionSizePercent decimal.Decimal `json:"position_size_percent"` // доля баланса
	StopLossPercent     decimal.Decimal `json:"stop_loss_percent"`
	TakeProfitPercent   decimal.Decimal `json:"take_profit_percent"`
}

// Validate проверяет доли
func (c SizingConfig) Validate() error {
	var errs utils.ValidationErrors
	errs.AddError("position_size_percent", utils.ValidateFraction(c.PositionSizePercent))
	errs.AddError("stop_loss_percent", utils.ValidateFraction(c.StopLossPercent))
	errs.AddError("take_profit_percent", utils.ValidateFraction(c.TakeProfitPercent))
	if errs.HasErrors() {
		return fmt.Errorf("%w: %v", ErrInvalidSizing, errs)
	}
	return nil
}

// SignalRequest - сигнал, поданный на исполнение
type SignalRequest struct {
	SignalID int
	Symbol   string
	Side     models.Side
	Score    int
}

// ExecutionResult - нормальный исход обработки (не ошибка)
type ExecutionResult struct {
	Outcome   string        `json:"outcome"`
	State     string        `json:"state"`
	Trade     *models.Trade `json:"trade,omitempty"`
	PendingID string        `json:"pending_id,omitempty"`
	Reasons   []string      `json:"reasons,omitempty"`
	Retryable bool          `json:"retryable"` // отказ не зафиксирован, сигнал вернётся на следующем тике
}

// ReconciliationError - ордер подтверждён площадкой, но локальная запись не удалась.
// Автоматически не повторяется: повтор может исполнить ордер второй раз.
type ReconciliationError struct {
	Operation string
	SignalID  int
	TradeID   int
	OrderID   string
	Err       error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation required: %s signal=%d trade=%d order=%s: %v",
		e.Operation, e.SignalID, e.TradeID, e.OrderID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// Executor - оркестратор: проверка -> ордер -> сделка -> леджер; закрытие сделок
type Executor struct {
	gw         gateway.Gateway
	risk       *RiskGate
	queue      *ApprovalQueue
	ledger     *PositionLedger
	trades     TradeStore
	signals    SignalSource
	deadLetter *DeadLetter
	notifyCh   chan<- *models.Notification
	quoteAsset string

	cfgMu  sync.RWMutex
	sizing SizingConfig

	inflight    sync.Map // signalID -> struct{}
	closing     sync.Map // tradeID -> struct{}
	symbolLocks sync.Map // symbol -> *sync.Mutex

	now func() time.Time
	log *utils.Logger
}

// ExecutorDeps - зависимости исполнителя
type ExecutorDeps struct {
	Gateway       gateway.Gateway
	Risk          *RiskGate
	Queue         *ApprovalQueue
	Ledger        *PositionLedger
	Trades        TradeStore
	Signals       SignalSource
	DeadLetter    *DeadLetter
	Notifications chan<- *models.Notification
	QuoteAsset    string
	Logger        *utils.Logger
}

// NewExecutor создает исполнитель
func NewExecutor(deps ExecutorDeps, sizing SizingConfig) *Executor {
	log := deps.Logger
	if log == nil {
		log = utils.L()
	}
	quote := deps.QuoteAsset
	if quote == "" {
		quote = "USDT"
	}
	return &Executor{
		gw:         deps.Gateway,
		risk:       deps.Risk,
		queue:      deps.Queue,
		ledger:     deps.Ledger,
		trades:     deps.Trades,
		signals:    deps.Signals,
		deadLetter: deps.DeadLetter,
		notifyCh:   deps.Notifications,
		quoteAsset: quote,
		sizing:     sizing,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.WithComponent("executor"),
	}
}

// Sizing возвращает текущие параметры расчёта
func (e *Executor) Sizing() SizingConfig {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.sizing
}

// UpdateSizing меняет параметры для следующих сигналов; открытые сделки не трогает
func (e *Executor) UpdateSizing(cfg SizingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfgMu.Lock()
	e.sizing = cfg
	e.cfgMu.Unlock()
	return nil
}

// ============================================================
// Открытие
// ============================================================

// ExecuteSignal проводит сигнал через received -> validated -> {rejected | pending_approval | open}.
//
// Ошибка возвращается для сбоев (шлюз, БД, сверка); отказы риск-гейта и
// постановка в очередь - нормальные исходы в ExecutionResult.
func (e *Executor) ExecuteSignal(ctx context.Context, req SignalRequest) (*ExecutionResult, error) {
	start := time.Now()
	log := e.log.With(utils.SignalID(req.SignalID), utils.Symbol(req.Symbol), utils.Side(string(req.Side)))

	result, err := e.executeSignal(ctx, req, log)

	outcome := OutcomeFailed
	if result != nil {
		outcome = result.Outcome
	}
	RecordSignal(outcome, float64(time.Since(start).Milliseconds()))
	return result, err
}

func (e *Executor) executeSignal(ctx context.Context, req SignalRequest, log *utils.Logger) (*ExecutionResult, error) {
	flow := newSignalFlow(req.SignalID, StateReceived)

	// программные ошибки отклоняются до обращения к площадке
	if err := validateTarget(req.Symbol, req.Side); err != nil {
		_ = flow.advance(StateRejected)
		e.rejectSignal(req.SignalID, ReasonInvalidRequest+": "+err.Error(), log)
		return &ExecutionResult{Outcome: OutcomeRejected, State: flow.state, Reasons: []string{ReasonInvalidRequest}}, nil
	}

	release, ok := e.claim(req.SignalID)
	if !ok {
		return &ExecutionResult{Outcome: OutcomeSkipped, State: flow.state}, nil
	}
	defer release()

	exists, err := e.trades.ExistsForSignal(req.SignalID)
	if err != nil {
		return nil, fmt.Errorf("check existing trade: %w", err)
	}
	if exists {
		return &ExecutionResult{Outcome: OutcomeSkipped, State: flow.state}, nil
	}

	// received -> validated: цена, баланс, шаг, объём
	price, err := e.gw.GetPrice(ctx, req.Symbol)
	if err != nil {
		_ = flow.advance(StateFailed)
		return nil, e.gatewayFailure("get price", req.Symbol, err, log)
	}

	balance, err := e.gw.GetBalance(ctx, e.quoteAsset)
	if err != nil {
		_ = flow.advance(StateFailed)
		return nil, e.gatewayFailure("get balance", req.Symbol, err, log)
	}
	if balance.Sign() <= 0 {
		_ = flow.advance(StateRejected)
		log.Warn("signal rejected: zero balance", utils.String("balance", balance.String()))
		return &ExecutionResult{Outcome: OutcomeRejected, State: flow.state, Reasons: []string{ReasonZeroBalance}, Retryable: true}, nil
	}

	step, err := e.gw.GetSymbolStepSize(ctx, req.Symbol)
	if err != nil {
		_ = flow.advance(StateFailed)
		return nil, e.gatewayFailure("get step size", req.Symbol, err, log)
	}

	sizing := e.Sizing()
	qty := utils.PositionQuantity(balance, sizing.PositionSizePercent, price, step)
	if qty.Sign() <= 0 {
		_ = flow.advance(StateRejected)
		log.Info("signal rejected: quantity below step",
			utils.Price(price),
			utils.String("balance", balance.String()),
			utils.String("step", step.String()),
		)
		return &ExecutionResult{Outcome: OutcomeRejected, State: flow.state, Reasons: []string{ReasonQuantityTooSmall}, Retryable: true}, nil
	}
	if err := flow.advance(StateValidated); err != nil {
		return nil, err
	}

	// validated -> {rejected | pending_approval | order_placed}
	validation := e.risk.Validate(ctx, req.Symbol, req.Side, qty)
	if !validation.Allowed {
		_ = flow.advance(StateRejected)
		result := &ExecutionResult{Outcome: OutcomeRejected, State: flow.state, Reasons: validation.Reasons, Retryable: validation.Transient()}
		if !result.Retryable {
			reason := strings.Join(validation.Reasons, ",")
			e.rejectSignal(req.SignalID, reason, log)
			e.notify(newNotification(models.NotificationTypeRiskRejected, models.SeverityWarn, req.Symbol, 0,
				fmt.Sprintf("Signal %d rejected by risk gate: %s", req.SignalID, reason),
				map[string]interface{}{"signal_id": req.SignalID, "reasons": validation.Reasons}))
		}
		return result, nil
	}

	if validation.RequiresApproval {
		if err := flow.advance(StatePendingApproval); err != nil {
			return nil, err
		}
		pending := e.queue.Add(req.SignalID, req.Symbol, req.Side, qty, req.Score)
		log.Info("trade queued for approval", utils.PendingID(pending.ID), utils.Quantity(qty))
		e.notify(newNotification(models.NotificationTypePending, models.SeverityInfo, req.Symbol, 0,
			fmt.Sprintf("%s %s %s awaiting approval", req.Side, qty, req.Symbol),
			map[string]interface{}{"pending_id": pending.ID, "signal_id": req.SignalID, "score": req.Score}))
		return &ExecutionResult{Outcome: OutcomePending, State: flow.state, PendingID: pending.ID}, nil
	}

	trade, err := e.openTrade(ctx, flow, req.SignalID, req.Symbol, req.Side, qty, price, log)
	if err != nil {
		return nil, err
	}
	return &ExecutionResult{Outcome: OutcomeOpened, State: flow.state, Trade: trade}, nil
}

// Approve одобряет ожидающую сделку и исполняет её: свежая цена,
// исходные символ/сторона/объём, без повторной проверки риск-гейтом.
func (e *Executor) Approve(ctx context.Context, pendingID string) (*ExecutionResult, error) {
	pending, err := e.queue.Approve(pendingID)
	if err != nil {
		return nil, err
	}

	log := e.log.With(utils.PendingID(pendingID), utils.SignalID(pending.SignalID), utils.Symbol(pending.Symbol))
	log.Info("pending trade approved")

	start := time.Now()
	result, err := e.resumeApproved(ctx, pending, log)
	if err != nil && !orderMayExist(err) {
		// ордера нет: решение оператора не теряем, запись снова ждёт Approve
		if _, rerr := e.queue.Revert(pendingID); rerr == nil {
			log.Warn("approved trade not executed, returned to queue", utils.Err(err))
		}
	}
	outcome := OutcomeFailed
	if result != nil {
		outcome = result.Outcome
	}
	RecordSignal(outcome, float64(time.Since(start).Milliseconds()))
	return result, err
}

func (e *Executor) resumeApproved(ctx context.Context, pending *models.PendingTrade, log *utils.Logger) (*ExecutionResult, error) {
	flow := newSignalFlow(pending.SignalID, StatePendingApproval)

	release, ok := e.claim(pending.SignalID)
	if !ok {
		return nil, ErrSignalInFlight
	}
	defer release()

	exists, err := e.trades.ExistsForSignal(pending.SignalID)
	if err != nil {
		return nil, fmt.Errorf("check existing trade: %w", err)
	}
	if exists {
		return &ExecutionResult{Outcome: OutcomeSkipped, State: flow.state, PendingID: pending.ID}, nil
	}

	// цена могла измениться с момента постановки в очередь
	price, err := e.gw.GetPrice(ctx, pending.Symbol)
	if err != nil {
		_ = flow.advance(StateFailed)
		return nil, e.gatewayFailure("get price", pending.Symbol, err, log)
	}

	trade, err := e.openTrade(ctx, flow, pending.SignalID, pending.Symbol, pending.Side, pending.Quantity, price, log)
	if err != nil {
		return nil, err
	}
	return &ExecutionResult{Outcome: OutcomeOpened, State: flow.state, Trade: trade, PendingID: pending.ID}, nil
}

// Reject отклоняет ожидающую сделку; сигнал помечается окончательно отклонённым
func (e *Executor) Reject(pendingID, reason string) (*models.PendingTrade, error) {
	if reason == "" {
		reason = "rejected by operator"
	}
	pending, err := e.queue.Reject(pendingID, reason)
	if err != nil {
		return nil, err
	}

	RecordTransition(StatePendingApproval, StateRejected)
	log := e.log.With(utils.PendingID(pendingID), utils.SignalID(pending.SignalID))
	e.rejectSignal(pending.SignalID, models.CloseReasonApprovalRejected+": "+reason, log)
	log.Info("pending trade rejected", utils.Reason(reason))
	return pending, nil
}

// openTrade: order_placed -> open. Ордер размещается один раз.
func (e *Executor) openTrade(ctx context.Context, flow *signalFlow, signalID int, symbol string, side models.Side, qty, price decimal.Decimal, log *utils.Logger) (*models.Trade, error) {
	if err := flow.advance(StateOrderPlaced); err != nil {
		return nil, err
	}

	unlock := e.lockSymbol(symbol)
	defer unlock()

	order, err := e.gw.PlaceMarketOrder(ctx, symbol, side.OrderSide(), qty)
	if err != nil {
		_ = flow.advance(StateFailed)
		if errors.Is(err, gateway.ErrGatewayTimeout) {
			// площадка могла принять ордер; автоматический повтор опасен
			e.deadLetter.Record(models.OperationRecordTrade, map[string]interface{}{
				"signal_id": signalID, "symbol": symbol, "side": side, "quantity": qty.String(), "price": price.String(),
			}, err)
			e.notify(newNotification(models.NotificationTypeReconciliation, models.SeverityError, symbol, 0,
				fmt.Sprintf("Order for signal %d timed out, venue state unknown", signalID),
				map[string]interface{}{"signal_id": signalID}))
			return nil, fmt.Errorf("%w: %v", ErrAmbiguousOrder, err)
		}
		return nil, e.gatewayFailure("place order", symbol, err, log)
	}

	fillPrice := price
	if order.AvgPrice.Sign() > 0 {
		fillPrice = order.AvgPrice
	}
	fillQty := qty
	if order.FilledQty.Sign() > 0 {
		fillQty = order.FilledQty
	}

	sizing := e.Sizing()
	trade := &models.Trade{
		SignalID:   signalID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   fillQty,
		EntryPrice: fillPrice,
		StopLoss:   utils.StopLossPrice(side.IsLong(), fillPrice, sizing.StopLossPercent),
		TakeProfit: utils.TakeProfitPrice(side.IsLong(), fillPrice, sizing.TakeProfitPercent),
		Status:     models.TradeStatusOpen,
		OrderID:    order.ID,
		CreatedAt:  e.now(),
	}

	if err := e.trades.Create(trade); err != nil {
		_ = flow.advance(StateReconcile)
		return nil, e.reconcile(&ReconciliationError{
			Operation: models.OperationRecordTrade,
			SignalID:  signalID,
			OrderID:   order.ID,
			Err:       err,
		}, trade)
	}

	if _, err := e.ledger.ApplyFill(symbol, side.Signed(fillQty), fillPrice); err != nil {
		_ = flow.advance(StateReconcile)
		return trade, e.reconcile(&ReconciliationError{
			Operation: models.OperationApplyFill,
			SignalID:  signalID,
			TradeID:   trade.ID,
			OrderID:   order.ID,
			Err:       err,
		}, trade)
	}

	if err := flow.advance(StateOpen); err != nil {
		return trade, err
	}

	TradesOpened.WithLabelValues(symbol, string(side)).Inc()
	log.Info("trade opened",
		utils.TradeID(trade.ID),
		utils.OrderID(order.ID),
		utils.Quantity(fillQty),
		utils.Price(fillPrice),
		utils.String("stop_loss", trade.StopLoss.String()),
		utils.String("take_profit", trade.TakeProfit.String()),
	)
	e.notify(newNotification(models.NotificationTypeOpen, models.SeverityInfo, symbol, trade.ID,
		fmt.Sprintf("Opened %s %s %s @ %s", side, fillQty, symbol, fillPrice),
		map[string]interface{}{"signal_id": signalID, "order_id": order.ID, "stop_loss": trade.StopLoss.String(), "take_profit": trade.TakeProfit.String()}))

	return trade, nil
}

// ============================================================
// Закрытие
// ============================================================

// Close закрывает сделку противоположным рыночным ордером.
//
// exitPrice = ноль: цена запрашивается у площадки. Сделка помечается CLOSED
// только после подтверждения ордера, затем в леджер применяется обратное исполнение.
// При ошибке ордера сделка остаётся OPEN.
func (e *Executor) Close(ctx context.Context, tradeID int, reason string, exitPrice decimal.Decimal) (*models.Trade, error) {
	if _, busy := e.closing.LoadOrStore(tradeID, struct{}{}); busy {
		return nil, ErrCloseInProgress
	}
	defer e.closing.Delete(tradeID)

	trade, err := e.trades.GetByID(tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsOpen() {
		return nil, ErrTradeNotOpen
	}
	if reason == "" {
		reason = models.CloseReasonManual
	}

	log := e.log.With(utils.TradeID(tradeID), utils.Symbol(trade.Symbol), utils.Side(string(trade.Side)))

	if exitPrice.Sign() <= 0 {
		exitPrice, err = e.gw.GetPrice(ctx, trade.Symbol)
		if err != nil {
			return nil, e.gatewayFailure("get price", trade.Symbol, err, log)
		}
	}

	unlock := e.lockSymbol(trade.Symbol)
	defer unlock()

	order, err := e.gw.PlaceMarketOrder(ctx, trade.Symbol, trade.Side.CloseSide(), trade.Quantity)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayTimeout) {
			e.deadLetter.Record(models.OperationCloseTrade, map[string]interface{}{
				"trade_id": tradeID, "symbol": trade.Symbol, "reason": reason, "price": exitPrice.String(),
			}, err)
			e.notify(newNotification(models.NotificationTypeReconciliation, models.SeverityError, trade.Symbol, tradeID,
				fmt.Sprintf("Close order for trade %d timed out, venue state unknown", tradeID), nil))
			return nil, fmt.Errorf("%w: %v", ErrAmbiguousOrder, err)
		}
		return nil, e.gatewayFailure("place close order", trade.Symbol, err, log)
	}
	if order.AvgPrice.Sign() > 0 {
		exitPrice = order.AvgPrice
	}

	pnl := utils.CalculatePNL(trade.Side.IsLong(), trade.EntryPrice, exitPrice, trade.Quantity)
	closedAt := e.now()

	if err := e.trades.MarkClosed(tradeID, exitPrice, pnl, reason, closedAt); err != nil {
		if errors.Is(err, repository.ErrTradeNotOpen) {
			err = fmt.Errorf("trade closed concurrently, extra close order %s: %w", order.ID, err)
		}
		return nil, e.reconcile(&ReconciliationError{
			Operation: models.OperationCloseTrade,
			SignalID:  trade.SignalID,
			TradeID:   tradeID,
			OrderID:   order.ID,
			Err:       err,
		}, trade)
	}

	trade.Status = models.TradeStatusClosed
	trade.ExitPrice = decimal.NewNullDecimal(exitPrice)
	trade.RealizedPnL = decimal.NewNullDecimal(pnl)
	trade.CloseReason = reason
	trade.ClosedAt = &closedAt

	if _, err := e.ledger.ApplyFill(trade.Symbol, trade.Side.Signed(trade.Quantity).Neg(), exitPrice); err != nil {
		return trade, e.reconcile(&ReconciliationError{
			Operation: models.OperationApplyFill,
			SignalID:  trade.SignalID,
			TradeID:   tradeID,
			OrderID:   order.ID,
			Err:       err,
		}, trade)
	}

	RecordTransition(StateOpen, StateClosed)
	RecordTradeClosed(trade.Symbol, reason, pnl)
	log.Info("trade closed",
		utils.OrderID(order.ID),
		utils.Price(exitPrice),
		utils.PNL(pnl),
		utils.Reason(reason),
	)

	notifType := models.NotificationTypeClose
	switch reason {
	case models.CloseReasonStopLoss:
		notifType = models.NotificationTypeSL
	case models.CloseReasonTakeProfit:
		notifType = models.NotificationTypeTP
	}
	severity := models.SeverityInfo
	if pnl.Sign() < 0 {
		severity = models.SeverityWarn
	}
	e.notify(newNotification(notifType, severity, trade.Symbol, tradeID,
		fmt.Sprintf("Closed %s %s %s @ %s, pnl %s (%s)", trade.Side, trade.Quantity, trade.Symbol, exitPrice, pnl.StringFixed(2), reason),
		map[string]interface{}{"pnl": pnl.String(), "exit_price": exitPrice.String(), "reason": reason}))

	return trade, nil
}

// ============================================================
// helpers
// ============================================================

// claim защищает сигнал от параллельной обработки intake и approve
func (e *Executor) claim(signalID int) (func(), bool) {
	if _, busy := e.inflight.LoadOrStore(signalID, struct{}{}); busy {
		return nil, false
	}
	return func() { e.inflight.Delete(signalID) }, true
}

// lockSymbol держит ордер, запись сделки и леджер одного символа в одном порядке.
// Разные символы не блокируют друг друга.
func (e *Executor) lockSymbol(symbol string) func() {
	v, _ := e.symbolLocks.LoadOrStore(symbol, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// orderMayExist - ордер мог быть принят площадкой, повтор небезопасен
func orderMayExist(err error) bool {
	var rerr *ReconciliationError
	return errors.Is(err, ErrAmbiguousOrder) || errors.As(err, &rerr)
}

// rejectSignal фиксирует окончательный отказ, чтобы intake не выбирал сигнал снова.
// Сделка при этом не создаётся.
func (e *Executor) rejectSignal(signalID int, reason string, log *utils.Logger) {
	if e.signals == nil {
		return
	}
	if err := e.signals.MarkRejected(signalID, reason, e.now()); err != nil {
		log.Error("failed to record signal rejection", utils.Reason(reason), utils.Err(err))
	}
}

// gatewayFailure - безопасный отказ: ордера нет, состояние не менялось
func (e *Executor) gatewayFailure(op, symbol string, err error, log *utils.Logger) error {
	log.Warn("gateway call failed", utils.String("op", op), utils.Err(err))
	return fmt.Errorf("%w: %s %s: %v", ErrGatewayFailure, op, symbol, err)
}

// reconcile поднимает тревогу сверки: лог, журнал, метрика, уведомление
func (e *Executor) reconcile(rerr *ReconciliationError, trade *models.Trade) error {
	ReconciliationGaps.WithLabelValues(rerr.Operation).Inc()

	e.log.Error("RECONCILIATION REQUIRED: order confirmed but bookkeeping failed",
		utils.String("operation", rerr.Operation),
		utils.SignalID(rerr.SignalID),
		utils.TradeID(rerr.TradeID),
		utils.OrderID(rerr.OrderID),
		utils.Err(rerr.Err),
	)

	e.deadLetter.Record(rerr.Operation, map[string]interface{}{
		"signal_id": rerr.SignalID,
		"trade_id":  rerr.TradeID,
		"order_id":  rerr.OrderID,
		"trade":     trade,
	}, rerr.Err)

	symbol := ""
	if trade != nil {
		symbol = trade.Symbol
	}
	e.notify(newNotification(models.NotificationTypeReconciliation, models.SeverityError, symbol, rerr.TradeID,
		rerr.Error(), map[string]interface{}{"operation": rerr.Operation, "order_id": rerr.OrderID}))

	return rerr
}

func (e *Executor) notify(notif *models.Notification) {
	tryEnqueueNotification(e.notifyCh, notif)
}
