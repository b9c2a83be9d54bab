package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// ============================================================
// Prometheus метрики торгового конвейера
// ============================================================
//
// Экспортируются через /metrics (promhttp в internal/api).

// ============ Метрики латентности ============

// SignalLatency - время обработки сигнала от выборки до результата
var SignalLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "signalbot",
		Subsystem: "trading",
		Name:      "signal_latency_ms",
		Help:      "Time to process a signal end to end in milliseconds",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	},
	[]string{"outcome"},
)

// TaskDuration - длительность периодических задач
var TaskDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "signalbot",
		Subsystem: "worker",
		Name:      "task_duration_ms",
		Help:      "Periodic task duration in milliseconds",
		Buckets:   []float64{5, 25, 100, 500, 1000, 5000, 15000, 60000},
	},
	[]string{"task"},
)

// ============ Счётчики событий ============

// SignalsProcessed - результаты обработки сигналов (opened, pending, rejected, skipped, failed)
var SignalsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "trading",
		Name:      "signals_processed_total",
		Help:      "Total number of processed signals by outcome",
	},
	[]string{"outcome"},
)

// RiskRejections - отказы риск-гейта по причинам
var RiskRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "risk",
		Name:      "rejections_total",
		Help:      "Total number of risk gate rejections by reason",
	},
	[]string{"reason"},
)

// TradesOpened - открытые сделки
var TradesOpened = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "trading",
		Name:      "trades_opened_total",
		Help:      "Total number of opened trades",
	},
	[]string{"symbol", "side"},
)

// TradesClosed - закрытые сделки по причине
var TradesClosed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "trading",
		Name:      "trades_closed_total",
		Help:      "Total number of closed trades by reason",
	},
	[]string{"symbol", "reason"},
)

// RealizedPnL - накопленный реализованный PnL с момента запуска
var RealizedPnL = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "signalbot",
		Subsystem: "trading",
		Name:      "realized_pnl",
		Help:      "Realized PnL accumulated since process start",
	},
)

// ReconciliationGaps - ордер исполнен, но локальная запись не удалась
var ReconciliationGaps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "trading",
		Name:      "reconciliation_gaps_total",
		Help:      "Orders confirmed by the venue whose local bookkeeping failed",
	},
	[]string{"operation"},
)

// DeadLetters - записи журнала недоставленных операций
var DeadLetters = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "worker",
		Name:      "dead_letters_total",
		Help:      "Total number of dead letter records",
	},
	[]string{"operation"},
)

// TaskRuns - запуски периодических задач по результату
var TaskRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "worker",
		Name:      "task_runs_total",
		Help:      "Total number of periodic task runs by result",
	},
	[]string{"task", "result"},
)

// StateTransitions - переходы конвейера сигнала
var StateTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "trading",
		Name:      "state_transitions_total",
		Help:      "Signal pipeline state transitions",
	},
	[]string{"from", "to"},
)

// BufferOverflows - переполнения каналов
var BufferOverflows = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "internal",
		Name:      "buffer_overflows_total",
		Help:      "Total number of dropped messages due to full buffers",
	},
	[]string{"buffer"},
)

// ============ Gauges ============

// OpenPositions - позиции в леджере
var OpenPositions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "signalbot",
		Subsystem: "ledger",
		Name:      "open_positions",
		Help:      "Number of non-flat positions in the ledger",
	},
)

// UnrealizedPnL - нереализованный PnL по символу
var UnrealizedPnL = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "signalbot",
		Subsystem: "ledger",
		Name:      "unrealized_pnl",
		Help:      "Unrealized PnL per symbol",
	},
	[]string{"symbol"},
)

// PendingApprovals - записи в очереди одобрения со статусом pending
var PendingApprovals = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "signalbot",
		Subsystem: "approval",
		Name:      "pending",
		Help:      "Trades waiting for manual approval",
	},
)

// ManualOverride - 1 если включено ручное одобрение
var ManualOverride = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "signalbot",
		Subsystem: "risk",
		Name:      "manual_override",
		Help:      "1 when manual approval is required for new trades",
	},
)

// ============================================================
// Helper функции
// ============================================================

// RecordSignal записывает результат обработки сигнала
func RecordSignal(outcome string, latencyMs float64) {
	SignalsProcessed.WithLabelValues(outcome).Inc()
	SignalLatency.WithLabelValues(outcome).Observe(latencyMs)
}

// RecordTradeClosed записывает закрытие сделки
func RecordTradeClosed(symbol, reason string, pnl decimal.Decimal) {
	TradesClosed.WithLabelValues(symbol, reason).Inc()
	RealizedPnL.Add(pnl.InexactFloat64())
}

// RecordTransition записывает переход состояния
func RecordTransition(from, to string) {
	StateTransitions.WithLabelValues(from, to).Inc()
}

// RecordBufferOverflow записывает переполнение буфера
func RecordBufferOverflow(bufferName string) {
	BufferOverflows.WithLabelValues(bufferName).Inc()
}

// setManualOverrideGauge обновляет gauge ручного режима
func setManualOverrideGauge(enabled bool) {
	if enabled {
		ManualOverride.Set(1)
		return
	}
	ManualOverride.Set(0)
}
