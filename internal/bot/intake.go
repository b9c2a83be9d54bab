package bot

import (
	"context"
	"time"

	"signalbot/internal/models"
	"signalbot/pkg/utils"
)

// IntakeConfig - параметры выборки сигналов
type IntakeConfig struct {
	Threshold     int         // минимальный score
	BatchSize     int         // сигналов за проход
	DefaultSymbol string      // если скорер не указал символ
	DefaultSide   models.Side // если скорер не указал направление
}

// IntakeResult - итог прохода
type IntakeResult struct {
	Fetched  int `json:"fetched"`
	Opened   int `json:"opened"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// SignalIntake - тонкий адаптер над скорером: выбирает сигналы выше порога
// без сделки и без окончательного отказа и подаёт их исполнителю
//
// Проход идемпотентен по сигналу: прерванный проход оставляет
// необработанные сигналы следующему запуску.
type SignalIntake struct {
	signals  SignalSource
	executor *Executor
	queue    *ApprovalQueue
	cfg      IntakeConfig
	log      *utils.Logger
}

// NewSignalIntake создает адаптер
func NewSignalIntake(signals SignalSource, executor *Executor, queue *ApprovalQueue, cfg IntakeConfig, log *utils.Logger) *SignalIntake {
	if log == nil {
		log = utils.L()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.DefaultSide == "" {
		cfg.DefaultSide = models.SideLong
	}
	return &SignalIntake{
		signals:  signals,
		executor: executor,
		queue:    queue,
		cfg:      cfg,
		log:      log.WithComponent("intake"),
	}
}

// Process обрабатывает одну пачку сигналов
func (in *SignalIntake) Process(ctx context.Context) (*IntakeResult, error) {
	batch, err := in.signals.ListTradeable(in.cfg.Threshold, in.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &IntakeResult{Fetched: len(batch)}

	for _, sig := range batch {
		if ctx.Err() != nil {
			break
		}

		// ждёт решения оператора или одобрен и разбирается
		if in.queue.HasQueuedSignal(sig.ID) {
			result.Skipped++
			continue
		}

		req := in.request(sig)
		res, err := in.executor.ExecuteSignal(ctx, req)
		if err != nil {
			// сверка уже поднята исполнителем, остальные сбои повторятся на следующем проходе
			result.Failed++
			in.log.Warn("signal execution failed", utils.SignalID(sig.ID), utils.Err(err))
			continue
		}

		switch res.Outcome {
		case OutcomeOpened:
			result.Opened++
		case OutcomePending:
			result.Pending++
		case OutcomeRejected:
			result.Rejected++
		default:
			result.Skipped++
		}
	}

	return result, nil
}

// Run - задача планировщика
func (in *SignalIntake) Run(ctx context.Context) error {
	start := time.Now()
	result, err := in.Process(ctx)
	if result != nil && result.Fetched > 0 {
		in.log.Info("intake pass done",
			utils.Int("fetched", result.Fetched),
			utils.Int("opened", result.Opened),
			utils.Int("pending", result.Pending),
			utils.Int("rejected", result.Rejected),
			utils.Int("skipped", result.Skipped),
			utils.Int("failed", result.Failed),
			utils.Latency(time.Since(start)),
		)
	}
	return err
}

func (in *SignalIntake) request(sig *models.Signal) SignalRequest {
	symbol := sig.Symbol
	if symbol == "" {
		symbol = in.cfg.DefaultSymbol
	}
	side := sig.Side
	if side == "" {
		side = in.cfg.DefaultSide
	}
	return SignalRequest{
		SignalID: sig.ID,
		Symbol:   utils.NormalizeSymbol(symbol),
		Side:     side,
		Score:    sig.Score,
	}
}
