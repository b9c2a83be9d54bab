package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/bot"
	"signalbot/internal/models"
)

// ============================================================
// Репозитории
// ============================================================

// TradeRepositoryInterface определяет чтение сделок для панели управления
type TradeRepositoryInterface interface {
	GetByID(id int) (*models.Trade, error)
	GetRecent(status string, limit int) ([]*models.Trade, error)
}

// SettingsRepositoryInterface определяет хранение торговых настроек
type SettingsRepositoryInterface interface {
	Get() (*models.Settings, error)
	Save(s *models.Settings) error
}

// NotificationRepositoryInterface определяет чтение журнала уведомлений
type NotificationRepositoryInterface interface {
	GetRecent(limit int, types []string) ([]*models.Notification, error)
}

// StatsRepositoryInterface определяет агрегаты по сделкам
type StatsRepositoryInterface interface {
	GetTradeStats(dayStart time.Time) (*models.TradeStats, error)
	GetTopSymbolsByProfit(limit int) ([]models.SymbolStat, error)
}

// FailedTaskRepositoryInterface определяет чтение журнала недоставленных операций
type FailedTaskRepositoryInterface interface {
	GetRecent(limit int) ([]*models.FailedTask, error)
}

// ============================================================
// Компоненты торгового ядра
// ============================================================
//
// Реализуются типами пакета bot; интерфейсы позволяют тестировать сервис без движка.

// RiskController - риск-гейт
type RiskController interface {
	Status(ctx context.Context) *bot.RiskStatus
	SetManualOverride(enabled bool, reason string) bot.OverrideState
	ToggleManualOverride(reason string) bot.OverrideState
	Limits() bot.RiskLimits
	UpdateLimits(limits bot.RiskLimits) error
}

// PendingQueue - очередь ручного одобрения
type PendingQueue interface {
	List() []*models.PendingTrade
	Cleanup(maxAge time.Duration) int
}

// TradeExecutor - исполнитель сделок
type TradeExecutor interface {
	Approve(ctx context.Context, pendingID string) (*bot.ExecutionResult, error)
	Reject(pendingID, reason string) (*models.PendingTrade, error)
	Close(ctx context.Context, tradeID int, reason string, exitPrice decimal.Decimal) (*models.Trade, error)
	Sizing() bot.SizingConfig
	UpdateSizing(cfg bot.SizingConfig) error
}

// PositionReader - снимок леджера
type PositionReader interface {
	SnapshotAll() []*models.Position
}

// Notifier публикует события оператору (websocket)
type Notifier interface {
	Notify(notif *models.Notification)
}

// ============================================================
// Сервисы для HTTP handlers
// ============================================================

// RiskServiceInterface - управление риск-гейтом
type RiskServiceInterface interface {
	GetRiskStatus(ctx context.Context) *RiskStatusResponse
	SetManualOverride(enabled bool, reason string) bot.OverrideState
	ToggleManualOverride(reason string) bot.OverrideState
}

// PendingServiceInterface - очередь одобрения
type PendingServiceInterface interface {
	ListPendingTrades() []*models.PendingTrade
	ApprovePending(ctx context.Context, pendingID string) (*bot.ExecutionResult, error)
	RejectPending(pendingID, reason string) (*models.PendingTrade, error)
	CleanupPending(hours int) (int, error)
}

// TradeServiceInterface - сделки, позиции, журнал сверки
type TradeServiceInterface interface {
	ListTrades(status string, limit int) ([]*models.Trade, error)
	GetTrade(id int) (*models.Trade, error)
	CloseTrade(ctx context.Context, id int) (*models.Trade, error)
	ListPositions() []*models.Position
	ListDeadLetters(limit int) ([]*models.FailedTask, error)
}

// SettingsServiceInterface - торговые настройки
type SettingsServiceInterface interface {
	GetTradingConfig() *TradingConfig
	UpdateTradingConfig(req *UpdateTradingConfigRequest) (*TradingConfig, error)
}

// NotificationServiceInterface - журнал уведомлений
type NotificationServiceInterface interface {
	ListNotifications(limit int, types []string) ([]*models.Notification, error)
}

// StatsServiceInterface - статистика сделок
type StatsServiceInterface interface {
	GetTradeStats() (*models.TradeStats, error)
}

var (
	_ RiskServiceInterface         = (*RiskService)(nil)
	_ PendingServiceInterface      = (*PendingService)(nil)
	_ TradeServiceInterface        = (*TradeService)(nil)
	_ SettingsServiceInterface     = (*SettingsService)(nil)
	_ NotificationServiceInterface = (*NotificationService)(nil)
	_ StatsServiceInterface        = (*StatsService)(nil)
)
