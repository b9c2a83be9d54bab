package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"signalbot/internal/models"
	"signalbot/internal/service"
)

// PendingHandler - очередь ручного одобрения
//
// Endpoints:
// - GET /api/v1/pending                  - сделки, ждущие решения
// - POST /api/v1/pending/{id}/approve    - одобрить и исполнить
// - POST /api/v1/pending/{id}/reject     - отклонить
// - DELETE /api/v1/pending?max_age_hours - удалить устаревшие записи
type PendingHandler struct {
	pendingService service.PendingServiceInterface
}

// NewPendingHandler создает новый PendingHandler
func NewPendingHandler(pendingService service.PendingServiceInterface) *PendingHandler {
	return &PendingHandler{pendingService: pendingService}
}

// RejectRequest - тело POST /pending/{id}/reject
type RejectRequest struct {
	Reason string `json:"reason"`
}

// CleanupResponse - результат очистки очереди
type CleanupResponse struct {
	Removed int `json:"removed"`
}

// ListPending возвращает очередь одобрения
// GET /api/v1/pending
func (h *PendingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	items := h.pendingService.ListPendingTrades()
	if items == nil {
		items = []*models.PendingTrade{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

// Approve одобряет сделку и сразу исполняет её по текущей цене
// POST /api/v1/pending/{id}/approve
//
// Response:
// - 200 OK: результат исполнения (outcome, trade)
// - 404 Not Found: записи нет или решение уже принято
// - 409 Conflict: сигнал уже обрабатывается
// - 502 Bad Gateway: биржа недоступна
// - 504 Gateway Timeout: исход ордера неизвестен
func (h *PendingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := h.pendingService.ApprovePending(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Reject отклоняет сделку; сигнал больше не торгуется
// POST /api/v1/pending/{id}/reject
//
// Request Body (опционально):
//
//	{"reason": "too risky"}
func (h *PendingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	pending, err := h.pendingService.RejectPending(id, req.Reason)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, pending)
}

// Cleanup удаляет записи старше max_age_hours (по умолчанию 24)
// DELETE /api/v1/pending?max_age_hours=24
func (h *PendingHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "max_age_hours", 24)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_max_age", "max_age_hours must be a number", "")
		return
	}

	removed, err := h.pendingService.CleanupPending(hours)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, CleanupResponse{Removed: removed})
}
