package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/bot"
	"signalbot/internal/models"
	"signalbot/internal/repository"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============ Mock RiskController ============

type MockRiskController struct {
	status   *bot.RiskStatus
	override bot.OverrideState
	limits   bot.RiskLimits
}

func NewMockRiskController() *MockRiskController {
	return &MockRiskController{
		status: &bot.RiskStatus{
			Drawdown:  bot.DrawdownCheck{Allowed: true, Balance: d("1000")},
			Positions: bot.PositionCheck{Allowed: true, OpenCount: 1, MaxCount: 5},
			CheckedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		limits: bot.RiskLimits{MaxDailyDrawdown: d("0.05"), MaxOpenPositions: 5},
	}
}

func (m *MockRiskController) Status(ctx context.Context) *bot.RiskStatus {
	st := *m.status
	st.ManualOverride = m.override
	st.Limits = m.limits
	return &st
}

func (m *MockRiskController) SetManualOverride(enabled bool, reason string) bot.OverrideState {
	m.override = bot.OverrideState{Enabled: enabled, Reason: reason, LastUpdated: time.Now().UTC()}
	return m.override
}

func (m *MockRiskController) ToggleManualOverride(reason string) bot.OverrideState {
	return m.SetManualOverride(!m.override.Enabled, reason)
}

func (m *MockRiskController) Limits() bot.RiskLimits {
	return m.limits
}

func (m *MockRiskController) UpdateLimits(limits bot.RiskLimits) error {
	if err := limits.Validate(); err != nil {
		return err
	}
	m.limits = limits
	return nil
}

// ============ Mock PendingQueue ============

type MockPendingQueue struct {
	items      []*models.PendingTrade
	lastMaxAge time.Duration
}

func (m *MockPendingQueue) List() []*models.PendingTrade {
	return m.items
}

func (m *MockPendingQueue) Cleanup(maxAge time.Duration) int {
	m.lastMaxAge = maxAge
	n := len(m.items)
	m.items = nil
	return n
}

// ============ Mock TradeExecutor ============

type MockTradeExecutor struct {
	sizing bot.SizingConfig

	approveResult *bot.ExecutionResult
	approveErr    error
	rejectErr     error
	closeErr      error

	closedID     int
	closedReason string
}

func NewMockTradeExecutor() *MockTradeExecutor {
	return &MockTradeExecutor{
		sizing: bot.SizingConfig{
			PositionSizePercent: d("0.01"),
			StopLossPercent:     d("0.02"),
			TakeProfitPercent:   d("0.04"),
		},
	}
}

func (m *MockTradeExecutor) Approve(ctx context.Context, pendingID string) (*bot.ExecutionResult, error) {
	return m.approveResult, m.approveErr
}

func (m *MockTradeExecutor) Reject(pendingID, reason string) (*models.PendingTrade, error) {
	if m.rejectErr != nil {
		return nil, m.rejectErr
	}
	return &models.PendingTrade{ID: pendingID, Status: models.PendingStatusRejected, RejectionReason: reason}, nil
}

func (m *MockTradeExecutor) Close(ctx context.Context, tradeID int, reason string, exitPrice decimal.Decimal) (*models.Trade, error) {
	if m.closeErr != nil {
		return nil, m.closeErr
	}
	m.closedID = tradeID
	m.closedReason = reason
	return &models.Trade{ID: tradeID, Status: models.TradeStatusClosed, CloseReason: reason}, nil
}

func (m *MockTradeExecutor) Sizing() bot.SizingConfig {
	return m.sizing
}

func (m *MockTradeExecutor) UpdateSizing(cfg bot.SizingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.sizing = cfg
	return nil
}

// ============ Mock repositories ============

type MockTradeRepository struct {
	trades     map[int]*models.Trade
	lastStatus string
	lastLimit  int
	err        error
}

func NewMockTradeRepository() *MockTradeRepository {
	return &MockTradeRepository{trades: make(map[int]*models.Trade)}
}

func (m *MockTradeRepository) GetByID(id int) (*models.Trade, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.trades[id]
	if !ok {
		return nil, repository.ErrTradeNotFound
	}
	return t, nil
}

func (m *MockTradeRepository) GetRecent(status string, limit int) ([]*models.Trade, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastStatus = status
	m.lastLimit = limit
	var out []*models.Trade
	for _, t := range m.trades {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

type MockFailedTaskRepository struct {
	tasks     []*models.FailedTask
	lastLimit int
}

func (m *MockFailedTaskRepository) GetRecent(limit int) ([]*models.FailedTask, error) {
	m.lastLimit = limit
	return m.tasks, nil
}

// ============ Mock ledger / notifier ============

type MockPositionReader struct {
	positions []*models.Position
}

func (m *MockPositionReader) SnapshotAll() []*models.Position {
	return m.positions
}

type MockNotifier struct {
	sent []*models.Notification
}

func (m *MockNotifier) Notify(notif *models.Notification) {
	m.sent = append(m.sent, notif)
}

// ============ Mock NotificationRepository ============

type MockNotificationRepository struct {
	items     []*models.Notification
	lastLimit int
	lastTypes []string
}

func (m *MockNotificationRepository) GetRecent(limit int, types []string) ([]*models.Notification, error) {
	m.lastLimit = limit
	m.lastTypes = types
	return m.items, nil
}

// ============ Mock SettingsRepository ============

type MockSettingsRepository struct {
	stored  *models.Settings
	saved   *models.Settings
	saveErr error
}

func (m *MockSettingsRepository) Get() (*models.Settings, error) {
	if m.stored == nil {
		return nil, repository.ErrSettingsNotFound
	}
	return m.stored, nil
}

func (m *MockSettingsRepository) Save(s *models.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = s
	return nil
}

// ============ Mock StatsRepository ============

type MockStatsRepository struct {
	stats        *models.TradeStats
	top          []models.SymbolStat
	err          error
	lastDayStart time.Time
	lastLimit    int
}

func (m *MockStatsRepository) GetTradeStats(dayStart time.Time) (*models.TradeStats, error) {
	m.lastDayStart = dayStart
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *MockStatsRepository) GetTopSymbolsByProfit(limit int) ([]models.SymbolStat, error) {
	m.lastLimit = limit
	return m.top, nil
}
