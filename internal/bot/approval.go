package bot

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/models"
	"signalbot/pkg/id"
)

// ErrPendingNotFound - записи нет или она уже не в статусе pending
var ErrPendingNotFound = errors.New("pending trade not found")

// ApprovalQueue - сделки, прошедшие риск-гейт и ждущие решения оператора
//
// Все операции сериализованы одним мьютексом: API и периодическая очистка
// могут одновременно обращаться к одной записи.
type ApprovalQueue struct {
	mu    sync.Mutex
	items map[string]*models.PendingTrade
	now   func() time.Time
}

// NewApprovalQueue создает пустую очередь
func NewApprovalQueue() *ApprovalQueue {
	return &ApprovalQueue{
		items: make(map[string]*models.PendingTrade),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Add ставит сделку в очередь и возвращает копию записи с присвоенным ID
func (q *ApprovalQueue) Add(signalID int, symbol string, side models.Side, qty decimal.Decimal, score int) *models.PendingTrade {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	p := &models.PendingTrade{
		ID:        id.New(now),
		SignalID:  signalID,
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Score:     score,
		Status:    models.PendingStatusPending,
		CreatedAt: now,
	}
	q.items[p.ID] = p
	q.updateGauge()

	cp := *p
	return &cp
}

// List возвращает только записи в статусе pending, старые первыми
func (q *ApprovalQueue) List() []*models.PendingTrade {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*models.PendingTrade, 0, len(q.items))
	for _, p := range q.items {
		if p.Status != models.PendingStatusPending {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}

	// ULID монотонны, сортировка по ID = сортировка по времени создания
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get возвращает запись в любом статусе
func (q *ApprovalQueue) Get(pendingID string) (*models.PendingTrade, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p, ok := q.items[pendingID]
	if !ok {
		return nil, ErrPendingNotFound
	}
	cp := *p
	return &cp, nil
}

// Approve переводит pending -> approved. Повторное решение = ErrPendingNotFound.
func (q *ApprovalQueue) Approve(pendingID string) (*models.PendingTrade, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p, ok := q.items[pendingID]
	if !ok || p.Status != models.PendingStatusPending {
		return nil, ErrPendingNotFound
	}

	now := q.now()
	p.Status = models.PendingStatusApproved
	p.ApprovedAt = &now
	q.updateGauge()

	cp := *p
	return &cp, nil
}

// Revert возвращает approved -> pending, если исполнение не дошло до ордера.
// Запись снова доступна для Approve/Reject под тем же ID.
func (q *ApprovalQueue) Revert(pendingID string) (*models.PendingTrade, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p, ok := q.items[pendingID]
	if !ok || p.Status != models.PendingStatusApproved {
		return nil, ErrPendingNotFound
	}

	p.Status = models.PendingStatusPending
	p.ApprovedAt = nil
	q.updateGauge()

	cp := *p
	return &cp, nil
}

// Reject переводит pending -> rejected
func (q *ApprovalQueue) Reject(pendingID, reason string) (*models.PendingTrade, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p, ok := q.items[pendingID]
	if !ok || p.Status != models.PendingStatusPending {
		return nil, ErrPendingNotFound
	}

	now := q.now()
	p.Status = models.PendingStatusRejected
	p.RejectedAt = &now
	p.RejectionReason = reason
	q.updateGauge()

	cp := *p
	return &cp, nil
}

// Cleanup удаляет записи любого статуса старше maxAge.
// Записи моложе порога не трогает.
func (q *ApprovalQueue) Cleanup(maxAge time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-maxAge)
	removed := 0
	for pid, p := range q.items {
		if p.CreatedAt.Before(cutoff) {
			delete(q.items, pid)
			removed++
		}
	}
	if removed > 0 {
		q.updateGauge()
	}
	return removed
}

// HasQueuedSignal - есть ли по сигналу запись, ждущая решения или уже одобренная.
// Одобренная запись остаётся за сигналом, пока её исполнение не разобрано.
func (q *ApprovalQueue) HasQueuedSignal(signalID int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, p := range q.items {
		if p.SignalID != signalID {
			continue
		}
		if p.Status == models.PendingStatusPending || p.Status == models.PendingStatusApproved {
			return true
		}
	}
	return false
}

// updateGauge вызывается под q.mu
func (q *ApprovalQueue) updateGauge() {
	pending := 0
	for _, p := range q.items {
		if p.Status == models.PendingStatusPending {
			pending++
		}
	}
	PendingApprovals.Set(float64(pending))
}
