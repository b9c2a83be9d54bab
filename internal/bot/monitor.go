package bot

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/gateway"
	"signalbot/internal/models"
	"signalbot/pkg/utils"
)

// SweepResult - итог одного прохода монитора
type SweepResult struct {
	Monitored int `json:"monitored"`
	Closed    int `json:"closed"`
	Skipped   int `json:"skipped"` // цена недоступна
	Failed    int `json:"failed"`  // закрытие не удалось, повтор на следующем проходе
}

// PositionMonitor - периодическая проверка SL/TP открытых сделок
type PositionMonitor struct {
	gw       gateway.Gateway
	trades   TradeStore
	executor *Executor
	log      *utils.Logger
}

// NewPositionMonitor создает монитор
func NewPositionMonitor(gw gateway.Gateway, trades TradeStore, executor *Executor, log *utils.Logger) *PositionMonitor {
	if log == nil {
		log = utils.L()
	}
	return &PositionMonitor{
		gw:       gw,
		trades:   trades,
		executor: executor,
		log:      log.WithComponent("monitor"),
	}
}

// Sweep проверяет все открытые сделки.
//
// Стоп-лосс проверяется раньше тейк-профита. Сбой цены пропускает сделку,
// сбой закрытия оставляет её OPEN до следующего прохода. Цена запрашивается
// один раз на символ за проход.
func (m *PositionMonitor) Sweep(ctx context.Context) (*SweepResult, error) {
	open, err := m.trades.GetOpen()
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	prices := make(map[string]decimal.Decimal)
	failedSymbols := make(map[string]bool)

	for _, trade := range open {
		if ctx.Err() != nil {
			break
		}
		result.Monitored++

		if failedSymbols[trade.Symbol] {
			result.Skipped++
			continue
		}
		price, ok := prices[trade.Symbol]
		if !ok {
			price, err = m.gw.GetPrice(ctx, trade.Symbol)
			if err != nil {
				m.log.Warn("price unavailable, skipping", utils.Symbol(trade.Symbol), utils.Err(err))
				failedSymbols[trade.Symbol] = true
				result.Skipped++
				continue
			}
			prices[trade.Symbol] = price
		}

		reason := exitReason(trade, price)
		if reason == "" {
			continue
		}

		m.log.Info("exit level reached",
			utils.TradeID(trade.ID),
			utils.Symbol(trade.Symbol),
			utils.Price(price),
			utils.Reason(reason),
		)

		if _, err := m.executor.Close(ctx, trade.ID, reason, price); err != nil {
			m.log.Error("close failed, will retry next sweep", utils.TradeID(trade.ID), utils.Reason(reason), utils.Err(err))
			result.Failed++
			continue
		}
		result.Closed++
	}

	return result, nil
}

// Run - задача планировщика
func (m *PositionMonitor) Run(ctx context.Context) error {
	start := time.Now()
	result, err := m.Sweep(ctx)
	if err != nil {
		return err
	}
	if result.Closed > 0 || result.Failed > 0 || result.Skipped > 0 {
		m.log.Info("sweep done",
			utils.Int("monitored", result.Monitored),
			utils.Int("closed", result.Closed),
			utils.Int("skipped", result.Skipped),
			utils.Int("failed", result.Failed),
			utils.Latency(time.Since(start)),
		)
	}
	return nil
}

// exitReason возвращает причину выхода или пустую строку
func exitReason(trade *models.Trade, price decimal.Decimal) string {
	if trade.StopLossHit(price) {
		return models.CloseReasonStopLoss
	}
	if trade.TakeProfitHit(price) {
		return models.CloseReasonTakeProfit
	}
	return ""
}
