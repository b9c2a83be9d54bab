package service

import (
	"context"
	"fmt"
	"time"

	"signalbot/internal/bot"
	"signalbot/internal/models"
)

// RiskStatusResponse - состояние риска для панели управления
type RiskStatusResponse struct {
	ManualOverride bot.OverrideState `json:"manual_override"`
	TradingAllowed bool              `json:"trading_allowed"`
	Limits         bot.RiskLimits    `json:"limits"`
	Drawdown       bot.DrawdownCheck `json:"drawdown"`
	Positions      bot.PositionCheck `json:"positions"`
	PendingCount   int               `json:"pending_count"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// RiskService - бизнес-логика управления риск-гейтом из панели
//
// Сами проверки живут в internal/bot/risk.go: сервис только читает
// снимок и переключает ручное одобрение.
type RiskService struct {
	risk     RiskController
	queue    PendingQueue
	notifier Notifier // может быть nil
}

// NewRiskService создает сервис
func NewRiskService(risk RiskController, queue PendingQueue, notifier Notifier) *RiskService {
	return &RiskService{risk: risk, queue: queue, notifier: notifier}
}

// GetRiskStatus возвращает текущее состояние риска
//
// trading_allowed = обе проверки проходят; при включенном override
// новые сделки всё равно уходят в очередь одобрения.
func (s *RiskService) GetRiskStatus(ctx context.Context) *RiskStatusResponse {
	st := s.risk.Status(ctx)
	return &RiskStatusResponse{
		ManualOverride: st.ManualOverride,
		TradingAllowed: st.Drawdown.Allowed && st.Positions.Allowed,
		Limits:         st.Limits,
		Drawdown:       st.Drawdown,
		Positions:      st.Positions,
		PendingCount:   len(s.queue.List()),
		LastUpdated:    st.CheckedAt,
	}
}

// SetManualOverride включает или выключает ручное одобрение
func (s *RiskService) SetManualOverride(enabled bool, reason string) bot.OverrideState {
	if reason == "" {
		reason = "api"
	}
	state := s.risk.SetManualOverride(enabled, reason)
	s.announce(state)
	return state
}

// ToggleManualOverride инвертирует флаг ручного одобрения
func (s *RiskService) ToggleManualOverride(reason string) bot.OverrideState {
	if reason == "" {
		reason = "api"
	}
	state := s.risk.ToggleManualOverride(reason)
	s.announce(state)
	return state
}

func (s *RiskService) announce(state bot.OverrideState) {
	if s.notifier == nil {
		return
	}
	mode := "disabled"
	if state.Enabled {
		mode = "enabled"
	}
	s.notifier.Notify(&models.Notification{
		Timestamp: state.LastUpdated,
		Type:      models.NotificationTypeOverride,
		Severity:  models.SeverityInfo,
		Message:   fmt.Sprintf("Manual approval %s (%s)", mode, state.Reason),
		Meta:      map[string]interface{}{"enabled": state.Enabled, "reason": state.Reason},
	})
}
