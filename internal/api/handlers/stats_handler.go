package handlers

import (
	"net/http"

	"signalbot/internal/service"
)

// StatsHandler - статистика сделок
//
// Endpoints:
// - GET /api/v1/trades/stats
//
// Response 200 OK:
//
//	{
//	  "open_positions": 2,
//	  "total_realized_pnl": "125.5",
//	  "daily_pnl": "12.4",
//	  "total_trades": 40,
//	  "winning_trades": 24,
//	  "losing_trades": 16,
//	  "win_rate_percent": "60",
//	  "average_win": "11.2",
//	  "average_loss": "-8.95",
//	  "profit_factor": "1.25",
//	  "top_symbols": [{"symbol": "BTCUSDT", "trades": 12, "pnl": "80.1"}]
//	}
type StatsHandler struct {
	statsService service.StatsServiceInterface
}

// NewStatsHandler создает новый StatsHandler
func NewStatsHandler(statsService service.StatsServiceInterface) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetTradeStats возвращает сводную статистику
func (h *StatsHandler) GetTradeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetTradeStats()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
