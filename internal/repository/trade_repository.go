package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/models"
)

// Ошибки репозитория сделок
var (
	ErrTradeNotFound      = errors.New("trade not found")
	ErrTradeNotOpen       = errors.New("trade is not open")
	ErrTradeAlreadyExists = errors.New("trade already exists for signal")
)

const tradeColumns = `id, signal_id, symbol, side, quantity, entry_price, stop_loss, take_profit,
		status, exit_price, realized_pnl, order_id, close_reason, created_at, closed_at`

// TradeRepository - работа с таблицей trades
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create создает открытую сделку. ID присваивается базой.
// Повторная сделка по тому же сигналу отклоняется уникальным индексом.
func (r *TradeRepository) Create(trade *models.Trade) error {
	query := `
		INSERT INTO trades (signal_id, symbol, side, quantity, entry_price, stop_loss, take_profit, status, order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now().UTC()
	}
	if trade.Status == "" {
		trade.Status = models.TradeStatusOpen
	}

	err := r.db.QueryRow(
		query,
		trade.SignalID,
		trade.Symbol,
		trade.Side,
		trade.Quantity,
		trade.EntryPrice,
		trade.StopLoss,
		trade.TakeProfit,
		trade.Status,
		trade.OrderID,
		trade.CreatedAt,
	).Scan(&trade.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrTradeAlreadyExists
		}
		return err
	}

	return nil
}

// GetByID возвращает сделку по ID
func (r *TradeRepository) GetByID(id int) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	trade, err := scanTrade(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	return trade, nil
}

// GetOpen возвращает все открытые сделки, старые первыми
func (r *TradeRepository) GetOpen() ([]*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE status = $1 ORDER BY created_at ASC`
	return r.queryTrades(query, models.TradeStatusOpen)
}

// GetRecent возвращает последние N сделок; пустой status = все статусы
func (r *TradeRepository) GetRecent(status string, limit int) ([]*models.Trade, error) {
	if status == "" {
		query := `SELECT ` + tradeColumns + ` FROM trades ORDER BY created_at DESC LIMIT $1`
		return r.queryTrades(query, limit)
	}
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
	return r.queryTrades(query, status, limit)
}

// GetClosedBetween возвращает сделки, закрытые в диапазоне [from, to]
func (r *TradeRepository) GetClosedBetween(from, to time.Time) ([]*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades
		WHERE status = $1 AND closed_at >= $2 AND closed_at <= $3
		ORDER BY closed_at ASC`
	return r.queryTrades(query, models.TradeStatusClosed, from, to)
}

// CountOpen возвращает количество открытых сделок
func (r *TradeRepository) CountOpen() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM trades WHERE status = $1`, models.TradeStatusOpen).Scan(&count)
	return count, err
}

// SumRealizedPnLSince возвращает сумму реализованного PnL сделок, закрытых начиная с since
func (r *TradeRepository) SumRealizedPnLSince(since time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(realized_pnl), 0)
		FROM trades
		WHERE status = $1 AND closed_at >= $2`

	var sum decimal.Decimal
	if err := r.db.QueryRow(query, models.TradeStatusClosed, since).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// ExistsForSignal проверяет, есть ли уже сделка по сигналу
func (r *TradeRepository) ExistsForSignal(signalID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM trades WHERE signal_id = $1)`, signalID).Scan(&exists)
	return exists, err
}

// MarkClosed переводит сделку OPEN -> CLOSED.
// Условие по статусу в WHERE делает переход атомарным: закрытую сделку повторно закрыть нельзя.
func (r *TradeRepository) MarkClosed(id int, exitPrice, pnl decimal.Decimal, reason string, closedAt time.Time) error {
	query := `
		UPDATE trades
		SET status = $1, exit_price = $2, realized_pnl = $3, close_reason = $4, closed_at = $5
		WHERE id = $6 AND status = $7`

	result, err := r.db.Exec(query, models.TradeStatusClosed, exitPrice, pnl, reason, closedAt, id, models.TradeStatusOpen)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTradeNotOpen
	}

	return nil
}

// ============================================================
// helpers
// ============================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row rowScanner) (*models.Trade, error) {
	t := &models.Trade{}
	var orderID, closeReason sql.NullString
	var closedAt sql.NullTime

	err := row.Scan(
		&t.ID,
		&t.SignalID,
		&t.Symbol,
		&t.Side,
		&t.Quantity,
		&t.EntryPrice,
		&t.StopLoss,
		&t.TakeProfit,
		&t.Status,
		&t.ExitPrice,
		&t.RealizedPnL,
		&orderID,
		&closeReason,
		&t.CreatedAt,
		&closedAt,
	)
	if err != nil {
		return nil, err
	}

	t.OrderID = orderID.String
	t.CloseReason = closeReason.String
	if closedAt.Valid {
		ct := closedAt.Time
		t.ClosedAt = &ct
	}
	return t, nil
}

func (r *TradeRepository) queryTrades(query string, args ...interface{}) ([]*models.Trade, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}
