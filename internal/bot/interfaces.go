package bot

import (
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/models"
)

// ============================================================
// Хранилища, которые использует торговое ядро
// ============================================================
//
// Реализуются репозиториями из internal/repository.

// TradeStore - операции с таблицей сделок
type TradeStore interface {
	Create(trade *models.Trade) error
	GetByID(id int) (*models.Trade, error)
	GetOpen() ([]*models.Trade, error)
	MarkClosed(id int, exitPrice, pnl decimal.Decimal, reason string, closedAt time.Time) error
	CountOpen() (int, error)
	SumRealizedPnLSince(since time.Time) (decimal.Decimal, error)
	ExistsForSignal(signalID int) (bool, error)
}

// PositionStore - персистентность леджера позиций
type PositionStore interface {
	Upsert(p *models.Position) error
	Delete(symbol string) error
	GetAll() ([]*models.Position, error)
	UpdateUnrealized(symbol string, pnl decimal.Decimal, at time.Time) error
}

// SignalSource - выборка сигналов от скорера и фиксация окончательных отказов
type SignalSource interface {
	ListTradeable(threshold, limit int) ([]*models.Signal, error)
	MarkRejected(signalID int, reason string, at time.Time) error
}

// NotificationStore - журнал уведомлений оператора
type NotificationStore interface {
	Create(notif *models.Notification) error
	DeleteOlderThan(before time.Time) (int64, error)
}

// FailedTaskStore - журнал недоставленных операций
type FailedTaskStore interface {
	Create(task *models.FailedTask) error
	DeleteOlderThan(before time.Time) (int64, error)
}
