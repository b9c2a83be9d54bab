package service

import (
	"context"
	"errors"
	"time"

	"signalbot/internal/bot"
	"signalbot/internal/models"
)

// Ошибки сервиса одобрения
var (
	ErrPendingNotFound = errors.New("pending trade not found")
	ErrInvalidMaxAge   = errors.New("max age must be at least 1 hour")
)

// PendingService - решения оператора по очереди одобрения
type PendingService struct {
	queue    PendingQueue
	executor TradeExecutor
}

// NewPendingService создает сервис
func NewPendingService(queue PendingQueue, executor TradeExecutor) *PendingService {
	return &PendingService{queue: queue, executor: executor}
}

// ListPendingTrades возвращает сделки, ждущие решения
func (s *PendingService) ListPendingTrades() []*models.PendingTrade {
	return s.queue.List()
}

// ApprovePending одобряет сделку и сразу исполняет её
func (s *PendingService) ApprovePending(ctx context.Context, pendingID string) (*bot.ExecutionResult, error) {
	result, err := s.executor.Approve(ctx, pendingID)
	if errors.Is(err, bot.ErrPendingNotFound) {
		return nil, ErrPendingNotFound
	}
	return result, err
}

// RejectPending отклоняет сделку; сигнал больше не торгуется
func (s *PendingService) RejectPending(pendingID, reason string) (*models.PendingTrade, error) {
	pending, err := s.executor.Reject(pendingID, reason)
	if errors.Is(err, bot.ErrPendingNotFound) {
		return nil, ErrPendingNotFound
	}
	return pending, err
}

// CleanupPending удаляет записи старше hours часов; возвращает число удалённых
func (s *PendingService) CleanupPending(hours int) (int, error) {
	if hours < 1 {
		return 0, ErrInvalidMaxAge
	}
	return s.queue.Cleanup(time.Duration(hours) * time.Hour), nil
}
