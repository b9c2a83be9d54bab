package handlers

import (
	"errors"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"signalbot/internal/bot"
	"signalbot/internal/service"
	"signalbot/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse стандартный формат ответа об ошибке для всех API endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse стандартный формат успешного ответа
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondWithError отправляет JSON ответ с ошибкой
func respondWithError(w http.ResponseWriter, statusCode int, code, message, details string) {
	respondWithJSON(w, statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// handleServiceError переводит ошибки сервисов и движка в HTTP статус
func handleServiceError(w http.ResponseWriter, err error) {
	var rerr *bot.ReconciliationError

	switch {
	case errors.Is(err, service.ErrPendingNotFound):
		respondWithError(w, http.StatusNotFound, "pending_not_found", "Pending trade not found", "")

	case errors.Is(err, service.ErrTradeNotFound):
		respondWithError(w, http.StatusNotFound, "trade_not_found", "Trade not found", "")

	case errors.Is(err, service.ErrInvalidStatus):
		respondWithError(w, http.StatusBadRequest, "invalid_status", err.Error(), "")

	case errors.Is(err, service.ErrInvalidNotificationType):
		respondWithError(w, http.StatusBadRequest, "invalid_type", err.Error(), "")

	case errors.Is(err, service.ErrInvalidMaxAge):
		respondWithError(w, http.StatusBadRequest, "invalid_max_age", err.Error(), "")

	case service.IsValidationError(err):
		respondWithError(w, http.StatusBadRequest, "invalid_settings", "Invalid settings", err.Error())

	case errors.Is(err, bot.ErrSignalInFlight):
		respondWithError(w, http.StatusConflict, "signal_in_flight", "Signal is already being processed", "")

	case errors.Is(err, bot.ErrCloseInProgress):
		respondWithError(w, http.StatusConflict, "close_in_progress", "Trade close already in progress", "")

	case errors.Is(err, bot.ErrTradeNotOpen):
		respondWithError(w, http.StatusConflict, "trade_not_open", "Trade is not open", "")

	case errors.As(err, &rerr):
		// ордер исполнен, запись не удалась: оператор должен сверить вручную
		respondWithError(w, http.StatusAccepted, "reconciliation_required",
			"Order executed but local state was not fully recorded", err.Error())

	case errors.Is(err, bot.ErrAmbiguousOrder):
		respondWithError(w, http.StatusGatewayTimeout, "order_outcome_unknown",
			"Order outcome unknown, check the venue before retrying", err.Error())

	case errors.Is(err, bot.ErrGatewayFailure):
		respondWithError(w, http.StatusBadGateway, "gateway_error", "Venue request failed", err.Error())

	default:
		utils.L().Error("unhandled service error", utils.Err(err))
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error", err.Error())
	}
}

// queryInt читает целый query-параметр; пустое значение - def
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
