package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"signalbot/internal/bot"
	"signalbot/internal/models"
	"signalbot/internal/repository"
)

// Ошибки сервиса сделок
var (
	ErrTradeNotFound = errors.New("trade not found")
	ErrInvalidStatus = errors.New("status must be OPEN, CLOSED or CANCELLED")
)

const (
	defaultTradesLimit = 50
	maxTradesLimit     = 500
)

// TradeService - чтение сделок и позиций, ручное закрытие
type TradeService struct {
	trades   TradeRepositoryInterface
	failed   FailedTaskRepositoryInterface
	executor TradeExecutor
	ledger   PositionReader
}

// NewTradeService создает сервис
func NewTradeService(trades TradeRepositoryInterface, failed FailedTaskRepositoryInterface, executor TradeExecutor, ledger PositionReader) *TradeService {
	return &TradeService{trades: trades, failed: failed, executor: executor, ledger: ledger}
}

// ListTrades возвращает последние сделки; пустой status = все
func (s *TradeService) ListTrades(status string, limit int) ([]*models.Trade, error) {
	switch status {
	case "", models.TradeStatusOpen, models.TradeStatusClosed, models.TradeStatusCancelled:
	default:
		return nil, ErrInvalidStatus
	}
	return s.trades.GetRecent(status, clampLimit(limit))
}

// GetTrade возвращает сделку по ID
func (s *TradeService) GetTrade(id int) (*models.Trade, error) {
	trade, err := s.trades.GetByID(id)
	if errors.Is(err, repository.ErrTradeNotFound) {
		return nil, ErrTradeNotFound
	}
	return trade, err
}

// CloseTrade закрывает сделку рыночным ордером по текущей цене
func (s *TradeService) CloseTrade(ctx context.Context, id int) (*models.Trade, error) {
	trade, err := s.executor.Close(ctx, id, models.CloseReasonManual, decimal.Zero)
	if errors.Is(err, repository.ErrTradeNotFound) {
		return nil, ErrTradeNotFound
	}
	return trade, err
}

// ListPositions возвращает снимок леджера
func (s *TradeService) ListPositions() []*models.Position {
	return s.ledger.SnapshotAll()
}

// ListDeadLetters возвращает последние записи журнала сверки
func (s *TradeService) ListDeadLetters(limit int) ([]*models.FailedTask, error) {
	return s.failed.GetRecent(clampLimit(limit))
}

// IsConflict - ошибка означает, что сделка в неподходящем состоянии
func IsConflict(err error) bool {
	return errors.Is(err, bot.ErrTradeNotOpen) ||
		errors.Is(err, bot.ErrCloseInProgress) ||
		errors.Is(err, bot.ErrSignalInFlight)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultTradesLimit
	}
	if limit > maxTradesLimit {
		return maxTradesLimit
	}
	return limit
}
