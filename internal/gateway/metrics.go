package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ Метрики вызовов площадки ============

// CallLatency - время вызова площадки, включая повторы
var CallLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "signalbot",
		Subsystem: "gateway",
		Name:      "call_latency_ms",
		Help:      "Gateway call latency in milliseconds, retries included",
		Buckets:   []float64{25, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
	},
	[]string{"venue", "op"},
)

// CallErrors - неудачные вызовы по типу результата (error, timeout, exhausted)
var CallErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "gateway",
		Name:      "call_errors_total",
		Help:      "Total number of failed gateway calls",
	},
	[]string{"venue", "op", "kind"},
)

// CallRetries - повторы вызовов
var CallRetries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalbot",
		Subsystem: "gateway",
		Name:      "call_retries_total",
		Help:      "Total number of gateway call retries",
	},
	[]string{"venue", "op"},
)
