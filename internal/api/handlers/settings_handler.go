package handlers

import (
	"net/http"

	"signalbot/internal/service"
)

// SettingsHandler отвечает за торговые настройки
//
// Функции:
// - Получение настроек (GET /api/v1/settings)
// - Частичное обновление (PATCH /api/v1/settings)
//
// Доли позиции, SL/TP и лимиты риска применяются к следующим сигналам.
type SettingsHandler struct {
	settingsService service.SettingsServiceInterface
}

// NewSettingsHandler создает новый SettingsHandler
func NewSettingsHandler(settingsService service.SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetSettings возвращает текущие настройки
// GET /api/v1/settings
//
// Response 200 OK:
//
//	{
//	  "position_size_percent": "0.01",
//	  "stop_loss_percent": "0.02",
//	  "take_profit_percent": "0.04",
//	  "max_daily_drawdown": "0.05",
//	  "max_open_positions": 5
//	}
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.settingsService.GetTradingConfig())
}

// UpdateSettings обновляет переданные поля
// PATCH /api/v1/settings
//
// Response:
// - 200 OK: обновленные настройки
// - 400 Bad Request: невалидный JSON или значения (ничего не применено)
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateTradingConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	cfg, err := h.settingsService.UpdateTradingConfig(&req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, cfg)
}
