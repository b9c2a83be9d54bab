package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"signalbot/internal/bot"
	"signalbot/internal/models"
	"signalbot/internal/service"
)

// ErrMockDatabase - имитация сбоя хранилища
var ErrMockDatabase = errors.New("mock database error")

// ============ Mock Risk Service ============

type MockRiskService struct {
	status   *service.RiskStatusResponse
	override bot.OverrideState
	toggled  int
	mu       sync.Mutex
}

func NewMockRiskService() *MockRiskService {
	return &MockRiskService{
		status: &service.RiskStatusResponse{
			TradingAllowed: true,
			Limits:         bot.RiskLimits{MaxDailyDrawdown: decimal.RequireFromString("0.05"), MaxOpenPositions: 5},
			Positions:      bot.PositionCheck{Allowed: true, OpenCount: 2, MaxCount: 5},
			PendingCount:   1,
			LastUpdated:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func (m *MockRiskService) GetRiskStatus(ctx context.Context) *service.RiskStatusResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := *m.status
	st.ManualOverride = m.override
	return &st
}

func (m *MockRiskService) SetManualOverride(enabled bool, reason string) bot.OverrideState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = bot.OverrideState{Enabled: enabled, Reason: reason}
	return m.override
}

func (m *MockRiskService) ToggleManualOverride(reason string) bot.OverrideState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggled++
	m.override = bot.OverrideState{Enabled: !m.override.Enabled, Reason: reason}
	return m.override
}

// ============ Mock Pending Service ============

type MockPendingService struct {
	items      map[string]*models.PendingTrade
	approveErr error
	lastReason string
}

func NewMockPendingService() *MockPendingService {
	return &MockPendingService{items: make(map[string]*models.PendingTrade)}
}

func (m *MockPendingService) add(p *models.PendingTrade) {
	m.items[p.ID] = p
}

func (m *MockPendingService) ListPendingTrades() []*models.PendingTrade {
	out := make([]*models.PendingTrade, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	return out
}

func (m *MockPendingService) ApprovePending(ctx context.Context, pendingID string) (*bot.ExecutionResult, error) {
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	p, ok := m.items[pendingID]
	if !ok {
		return nil, service.ErrPendingNotFound
	}
	delete(m.items, pendingID)
	return &bot.ExecutionResult{
		Outcome:   bot.OutcomeOpened,
		PendingID: pendingID,
		Trade:     &models.Trade{ID: 1, SignalID: p.SignalID, Symbol: p.Symbol, Status: models.TradeStatusOpen},
	}, nil
}

func (m *MockPendingService) RejectPending(pendingID, reason string) (*models.PendingTrade, error) {
	p, ok := m.items[pendingID]
	if !ok {
		return nil, service.ErrPendingNotFound
	}
	m.lastReason = reason
	p.Status = models.PendingStatusRejected
	p.RejectionReason = reason
	delete(m.items, pendingID)
	return p, nil
}

func (m *MockPendingService) CleanupPending(hours int) (int, error) {
	if hours < 1 {
		return 0, service.ErrInvalidMaxAge
	}
	n := len(m.items)
	m.items = make(map[string]*models.PendingTrade)
	return n, nil
}

// ============ Mock Trade Service ============

type MockTradeService struct {
	trades    map[int]*models.Trade
	positions []*models.Position
	tasks     []*models.FailedTask
	closeErr  error
	listErr   error
	lastLimit int
}

func NewMockTradeService() *MockTradeService {
	return &MockTradeService{trades: make(map[int]*models.Trade)}
}

func (m *MockTradeService) ListTrades(status string, limit int) ([]*models.Trade, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if status != "" && status != models.TradeStatusOpen && status != models.TradeStatusClosed && status != models.TradeStatusCancelled {
		return nil, service.ErrInvalidStatus
	}
	m.lastLimit = limit
	var out []*models.Trade
	for _, t := range m.trades {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTradeService) GetTrade(id int) (*models.Trade, error) {
	t, ok := m.trades[id]
	if !ok {
		return nil, service.ErrTradeNotFound
	}
	return t, nil
}

func (m *MockTradeService) CloseTrade(ctx context.Context, id int) (*models.Trade, error) {
	if m.closeErr != nil {
		return nil, m.closeErr
	}
	t, ok := m.trades[id]
	if !ok {
		return nil, service.ErrTradeNotFound
	}
	if t.Status != models.TradeStatusOpen {
		return nil, bot.ErrTradeNotOpen
	}
	t.Status = models.TradeStatusClosed
	t.CloseReason = models.CloseReasonManual
	return t, nil
}

func (m *MockTradeService) ListPositions() []*models.Position {
	return m.positions
}

func (m *MockTradeService) ListDeadLetters(limit int) ([]*models.FailedTask, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.lastLimit = limit
	return m.tasks, nil
}

// ============ Mock Settings Service ============

type MockSettingsService struct {
	cfg *service.TradingConfig
}

func NewMockSettingsService() *MockSettingsService {
	return &MockSettingsService{cfg: &service.TradingConfig{
		PositionSizePercent: decimal.RequireFromString("0.01"),
		StopLossPercent:     decimal.RequireFromString("0.02"),
		TakeProfitPercent:   decimal.RequireFromString("0.04"),
		MaxDailyDrawdown:    decimal.RequireFromString("0.05"),
		MaxOpenPositions:    5,
	}}
}

func (m *MockSettingsService) GetTradingConfig() *service.TradingConfig {
	cfg := *m.cfg
	return &cfg
}

func (m *MockSettingsService) UpdateTradingConfig(req *service.UpdateTradingConfigRequest) (*service.TradingConfig, error) {
	next := *m.cfg
	if req.PositionSizePercent != nil {
		next.PositionSizePercent = *req.PositionSizePercent
	}
	if req.StopLossPercent != nil {
		next.StopLossPercent = *req.StopLossPercent
	}
	if req.MaxOpenPositions != nil {
		if *req.MaxOpenPositions < 1 {
			return nil, bot.ErrInvalidLimits
		}
		next.MaxOpenPositions = *req.MaxOpenPositions
	}
	m.cfg = &next
	return m.GetTradingConfig(), nil
}

// ============ Mock Notification Service ============

type MockNotificationService struct {
	items     []*models.Notification
	lastTypes []string
}

func (m *MockNotificationService) ListNotifications(limit int, types []string) ([]*models.Notification, error) {
	for _, t := range types {
		if t == "BOGUS" {
			return nil, service.ErrInvalidNotificationType
		}
	}
	m.lastTypes = types
	return m.items, nil
}

// ============ Mock Stats Service ============

type MockStatsService struct {
	stats *models.TradeStats
	err   error
}

func (m *MockStatsService) GetTradeStats() (*models.TradeStats, error) {
	return m.stats, m.err
}

// ============ Helpers ============

// serve прогоняет запрос через mux, чтобы заполнились переменные пути
func serve(pattern, method string, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.HandleFunc(pattern, h).Methods(method)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
