package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signalbot/internal/config"
	"signalbot/internal/gateway"
	"signalbot/internal/models"
	"signalbot/pkg/utils"
)

// notificationBuffer - ёмкость канала уведомлений
const notificationBuffer = 256

// WebSocketHub - интерфейс для отправки данных клиентам
//
// Реализуется пакетом internal/websocket/Hub.
type WebSocketHub interface {
	// BroadcastNotification отправляет уведомление о событии
	// Вызывается при OPEN, CLOSE, SL, TP, PENDING, RECONCILIATION и др.
	BroadcastNotification(notif *models.Notification)

	// BroadcastPositions отправляет снимок позиций леджера
	// Вызывается после каждого пересчёта нереализованного PnL
	BroadcastPositions(positions []*models.Position)
}

// EngineDeps - внешние зависимости движка
type EngineDeps struct {
	Gateway     gateway.Gateway
	Trades      TradeStore
	Positions   PositionStore
	Signals     SignalSource
	FailedTasks FailedTaskStore
	Journal     NotificationStore // nil = уведомления только в лог и websocket
	Hub         WebSocketHub      // nil = без websocket
	Logger      *utils.Logger
}

// Engine - торговое ядро: собирает компоненты конвейера и периодические задачи
//
// Поток данных:
// SignalIntake → RiskGate (через Executor) → [ApprovalQueue] → Executor → Gateway + Ledger
// PositionMonitor (по расписанию) → Executor.Close → Ledger
type Engine struct {
	cfg *config.Config

	risk       *RiskGate
	queue      *ApprovalQueue
	ledger     *PositionLedger
	executor   *Executor
	monitor    *PositionMonitor
	pnl        *PnLUpdater
	intake     *SignalIntake
	deadLetter *DeadLetter
	recovery   *RecoveryManager
	scheduler  *Scheduler

	notifications chan *models.Notification
	journal       NotificationStore
	hub           WebSocketHub

	log      *utils.Logger
	wg       sync.WaitGroup
	stopOnce sync.Once
	shutdown chan struct{}
}

// NewEngine собирает движок из конфигурации
func NewEngine(cfg *config.Config, deps EngineDeps) (*Engine, error) {
	log := deps.Logger
	if log == nil {
		log = utils.L()
	}

	side, err := utils.NormalizeSide(cfg.Trading.DefaultSide)
	if err != nil {
		return nil, fmt.Errorf("default side: %w", err)
	}

	sizing := SizingConfig{
		PositionSizePercent: cfg.Trading.PositionSizePercent,
		StopLossPercent:     cfg.Trading.StopLossPercent,
		TakeProfitPercent:   cfg.Trading.TakeProfitPercent,
	}
	if err := sizing.Validate(); err != nil {
		return nil, err
	}
	limits := RiskLimits{
		MaxDailyDrawdown: cfg.Trading.MaxDailyDrawdown,
		MaxOpenPositions: cfg.Trading.MaxOpenPositions,
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:           cfg,
		notifications: make(chan *models.Notification, notificationBuffer),
		journal:       deps.Journal,
		hub:           deps.Hub,
		log:           log.WithComponent("engine"),
		shutdown:      make(chan struct{}),
	}

	e.deadLetter = NewDeadLetter(deps.FailedTasks, log)
	e.risk = NewRiskGate(deps.Gateway, deps.Trades, cfg.Trading.QuoteAsset, limits, cfg.Trading.ManualOverride, log)
	e.queue = NewApprovalQueue()
	e.ledger = NewPositionLedger(deps.Positions, log)
	e.executor = NewExecutor(ExecutorDeps{
		Gateway:       deps.Gateway,
		Risk:          e.risk,
		Queue:         e.queue,
		Ledger:        e.ledger,
		Trades:        deps.Trades,
		Signals:       deps.Signals,
		DeadLetter:    e.deadLetter,
		Notifications: e.notifications,
		QuoteAsset:    cfg.Trading.QuoteAsset,
		Logger:        log,
	}, sizing)
	e.monitor = NewPositionMonitor(deps.Gateway, deps.Trades, e.executor, log)
	e.recovery = NewRecoveryManager(deps.Trades, e.ledger, e.deadLetter, e.notifications, log)
	e.pnl = NewPnLUpdater(deps.Gateway, e.ledger, log)
	e.intake = NewSignalIntake(deps.Signals, e.executor, e.queue, IntakeConfig{
		Threshold:     cfg.Trading.SignalThreshold,
		BatchSize:     cfg.Trading.IntakeBatchSize,
		DefaultSymbol: cfg.Trading.DefaultSymbol,
		DefaultSide:   models.Side(side),
	}, log)

	w := cfg.Workers
	e.scheduler = NewScheduler(w.TaskTimeout, e.deadLetter, log).
		Add(Task{Name: models.OperationProcessSignals, Interval: w.IntakeInterval, Run: e.intake.Run}).
		Add(Task{Name: models.OperationMonitorTrades, Interval: w.MonitorInterval, Run: e.monitor.Run}).
		Add(Task{Name: models.OperationUpdatePnL, Interval: w.PnLInterval, Run: e.refreshAndBroadcast}).
		Add(Task{Name: models.OperationCleanupPending, Interval: w.CleanupInterval, Run: e.cleanupPending}).
		Add(Task{Name: models.OperationPurgeDeadLetter, Interval: w.CleanupInterval, Run: e.purgeDeadLetter}).
		Add(Task{Name: models.OperationPurgeJournal, Interval: w.CleanupInterval, Run: e.purgeJournal})

	return e, nil
}

// Start восстанавливает леджер, сверяет его со сделками и запускает задачи
func (e *Engine) Start(ctx context.Context) error {
	if err := e.ledger.Load(); err != nil {
		return err
	}
	// расхождение не блокирует запуск, оператор получает уведомление
	if _, err := e.recovery.Verify(); err != nil {
		e.log.Warn("startup consistency check failed", utils.Err(err))
	}

	e.wg.Add(1)
	go e.notificationLoop(ctx)

	e.scheduler.Start(ctx)
	e.log.Info("engine started",
		utils.Bool("manual_override", e.risk.Override().Enabled),
		utils.Int("signal_threshold", e.cfg.Trading.SignalThreshold),
	)
	return nil
}

// Stop останавливает задачи и дожидается доставки уведомлений
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.scheduler.Stop()
		close(e.shutdown)
		e.wg.Wait()
		e.log.Info("engine stopped")
	})
}

// Геттеры компонентов для control plane

func (e *Engine) Risk() *RiskGate { return e.risk }
func (e *Engine) Queue() *ApprovalQueue { return e.queue }
func (e *Engine) Ledger() *PositionLedger { return e.ledger }
func (e *Engine) Executor() *Executor { return e.executor }
func (e *Engine) Monitor() *PositionMonitor { return e.monitor }
func (e *Engine) Intake() *SignalIntake { return e.intake }
func (e *Engine) DeadLetter() *DeadLetter { return e.deadLetter }

// Notify публикует внешнее уведомление (например, о смене override из API)
func (e *Engine) Notify(notif *models.Notification) {
	tryEnqueueNotification(e.notifications, notif)
}

// ============================================================
// Задачи
// ============================================================

func (e *Engine) refreshAndBroadcast(ctx context.Context) error {
	_, err := e.pnl.Refresh(ctx)
	if e.hub != nil {
		e.hub.BroadcastPositions(e.ledger.SnapshotAll())
	}
	return err
}

func (e *Engine) cleanupPending(ctx context.Context) error {
	removed := e.queue.Cleanup(e.cfg.Workers.PendingMaxAge)
	if removed > 0 {
		e.log.Info("pending trades cleaned up",
			utils.Int("removed", removed),
			utils.String("max_age", utils.FormatDuration(e.cfg.Workers.PendingMaxAge)),
		)
	}
	return nil
}

func (e *Engine) purgeDeadLetter(ctx context.Context) error {
	_, err := e.deadLetter.Purge(e.cfg.Workers.DeadLetterRetention)
	return err
}

func (e *Engine) purgeJournal(ctx context.Context) error {
	if e.journal == nil {
		return nil
	}
	removed, err := e.journal.DeleteOlderThan(utils.Cutoff(time.Now().UTC(), e.cfg.Workers.NotificationRetention))
	if err != nil {
		return err
	}
	if removed > 0 {
		e.log.Info("notification journal purged", utils.Int64("removed", removed))
	}
	return nil
}

// notificationLoop доставляет уведомления в лог и websocket
func (e *Engine) notificationLoop(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case notif := <-e.notifications:
			e.deliver(notif)
		case <-e.shutdown:
			e.drain()
			return
		case <-ctx.Done():
			e.drain()
			return
		}
	}
}

// drain доставляет то, что осталось в канале, не дольше секунды
func (e *Engine) drain() {
	deadline := time.After(time.Second)
	for {
		select {
		case notif := <-e.notifications:
			e.deliver(notif)
		case <-deadline:
			return
		default:
			return
		}
	}
}

func (e *Engine) deliver(notif *models.Notification) {
	if notif == nil {
		return
	}
	fields := []utils.Field{
		utils.String("type", notif.Type),
		utils.String("severity", notif.Severity),
		utils.Symbol(notif.Symbol),
	}
	if notif.TradeID != nil {
		fields = append(fields, utils.TradeID(*notif.TradeID))
	}
	switch notif.Severity {
	case models.SeverityError:
		e.log.Error(notif.Message, fields...)
	case models.SeverityWarn:
		e.log.Warn(notif.Message, fields...)
	default:
		e.log.Info(notif.Message, fields...)
	}

	// журнал до websocket: клиент получает уведомление уже с ID
	if e.journal != nil {
		if err := e.journal.Create(notif); err != nil {
			e.log.Warn("notification not journaled", utils.String("type", notif.Type), utils.Err(err))
		}
	}
	if e.hub != nil {
		e.hub.BroadcastNotification(notif)
	}
}
