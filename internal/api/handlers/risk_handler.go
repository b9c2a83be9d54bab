package handlers

import (
	"io"
	"net/http"

	"signalbot/internal/service"
)

// RiskHandler - состояние риск-гейта и ручное одобрение
//
// Endpoints:
// - GET /api/v1/risk           - текущее состояние риска
// - POST /api/v1/risk/override - включить/выключить/переключить ручное одобрение
type RiskHandler struct {
	riskService service.RiskServiceInterface
}

// NewRiskHandler создает новый RiskHandler с внедрением зависимостей
func NewRiskHandler(riskService service.RiskServiceInterface) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

// OverrideRequest - тело POST /risk/override.
// Без enabled флаг инвертируется.
type OverrideRequest struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Reason  string `json:"reason"`
}

// GetRiskStatus возвращает состояние риска
// GET /api/v1/risk
//
// Response 200 OK:
//
//	{
//	  "manual_override": {"enabled": false, "last_updated": "..."},
//	  "trading_allowed": true,
//	  "limits": {"max_daily_drawdown": "0.05", "max_open_positions": 5},
//	  "drawdown": {"allowed": true, "daily_pnl": "-12.5", "balance": "10000", ...},
//	  "positions": {"allowed": true, "open_count": 2, "max_count": 5},
//	  "pending_count": 1,
//	  "last_updated": "2026-03-01T12:00:00Z"
//	}
func (h *RiskHandler) GetRiskStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.riskService.GetRiskStatus(r.Context()))
}

// SetOverride меняет режим ручного одобрения
// POST /api/v1/risk/override
//
// Request Body (опционально):
//
//	{"enabled": true, "reason": "volatile market"}
//
// Response:
// - 200 OK: новое состояние override
// - 400 Bad Request: невалидный JSON
func (h *RiskHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	if req.Enabled == nil {
		respondWithJSON(w, http.StatusOK, h.riskService.ToggleManualOverride(req.Reason))
		return
	}
	respondWithJSON(w, http.StatusOK, h.riskService.SetManualOverride(*req.Enabled, req.Reason))
}
