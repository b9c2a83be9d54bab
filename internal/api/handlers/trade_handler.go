package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"signalbot/internal/models"
	"signalbot/internal/service"
)

// TradeHandler - сделки, позиции и журнал сверки
//
// Endpoints:
// - GET /api/v1/trades?status=OPEN&limit=50 - последние сделки
// - GET /api/v1/trades/{id}                 - сделка по ID
// - POST /api/v1/trades/{id}/close          - закрыть рыночным ордером
// - GET /api/v1/positions                   - снимок леджера
// - GET /api/v1/deadletters?limit=50        - записи, требующие сверки
type TradeHandler struct {
	tradeService service.TradeServiceInterface
}

// NewTradeHandler создает новый TradeHandler
func NewTradeHandler(tradeService service.TradeServiceInterface) *TradeHandler {
	return &TradeHandler{tradeService: tradeService}
}

// ListTrades возвращает последние сделки
// GET /api/v1/trades?status=OPEN|CLOSED|CANCELLED&limit=50
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_limit", "limit must be a number", "")
		return
	}

	trades, err := h.tradeService.ListTrades(r.URL.Query().Get("status"), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if trades == nil {
		trades = []*models.Trade{}
	}
	respondWithJSON(w, http.StatusOK, trades)
}

// GetTrade возвращает сделку
// GET /api/v1/trades/{id}
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := tradeID(w, r)
	if !ok {
		return
	}

	trade, err := h.tradeService.GetTrade(id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, trade)
}

// CloseTrade закрывает сделку вручную
// POST /api/v1/trades/{id}/close
//
// Response:
// - 200 OK: закрытая сделка
// - 202 Accepted: ордер исполнен, но запись не удалась (см. /deadletters)
// - 404 Not Found: сделки нет
// - 409 Conflict: сделка не открыта или уже закрывается
func (h *TradeHandler) CloseTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := tradeID(w, r)
	if !ok {
		return
	}

	trade, err := h.tradeService.CloseTrade(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, trade)
}

// ListPositions возвращает позиции леджера
// GET /api/v1/positions
func (h *TradeHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	positions := h.tradeService.ListPositions()
	if positions == nil {
		positions = []*models.Position{}
	}
	respondWithJSON(w, http.StatusOK, positions)
}

// ListDeadLetters возвращает журнал недоставленных операций
// GET /api/v1/deadletters?limit=50
func (h *TradeHandler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_limit", "limit must be a number", "")
		return
	}

	tasks, err := h.tradeService.ListDeadLetters(limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*models.FailedTask{}
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func tradeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "invalid_id", "Invalid trade ID", "ID must be a positive number")
		return 0, false
	}
	return id, true
}
