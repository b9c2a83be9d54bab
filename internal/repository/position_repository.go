package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")
)

// PositionRepository - работа с таблицей positions (одна строка на символ)
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Upsert сохраняет позицию по символу
func (r *PositionRepository) Upsert(p *models.Position) error {
	query := `
		INSERT INTO positions (symbol, size, entry_price, leverage, unrealized_pnl, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol) DO UPDATE SET
			size = EXCLUDED.size,
			entry_price = EXCLUDED.entry_price,
			leverage = EXCLUDED.leverage,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			updated_at = EXCLUDED.updated_at`

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	if p.Leverage == 0 {
		p.Leverage = 1
	}

	_, err := r.db.Exec(query, p.Symbol, p.Size, p.EntryPrice, p.Leverage, p.UnrealizedPnL, p.UpdatedAt)
	return err
}

// Delete удаляет позицию символа. Отсутствие строки не ошибка.
func (r *PositionRepository) Delete(symbol string) error {
	_, err := r.db.Exec(`DELETE FROM positions WHERE symbol = $1`, symbol)
	return err
}

// GetBySymbol возвращает позицию по символу
func (r *PositionRepository) GetBySymbol(symbol string) (*models.Position, error) {
	query := `
		SELECT symbol, size, entry_price, leverage, unrealized_pnl, updated_at
		FROM positions
		WHERE symbol = $1`

	p := &models.Position{}
	err := r.db.QueryRow(query, symbol).Scan(&p.Symbol, &p.Size, &p.EntryPrice, &p.Leverage, &p.UnrealizedPnL, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetAll возвращает все позиции, упорядоченные по символу
func (r *PositionRepository) GetAll() ([]*models.Position, error) {
	query := `
		SELECT symbol, size, entry_price, leverage, unrealized_pnl, updated_at
		FROM positions
		ORDER BY symbol`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		p := &models.Position{}
		if err := rows.Scan(&p.Symbol, &p.Size, &p.EntryPrice, &p.Leverage, &p.UnrealizedPnL, &p.UpdatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// UpdateUnrealized обновляет только нереализованный PnL
func (r *PositionRepository) UpdateUnrealized(symbol string, pnl decimal.Decimal, at time.Time) error {
	_, err := r.db.Exec(
		`UPDATE positions SET unrealized_pnl = $1, updated_at = $2 WHERE symbol = $3`,
		pnl, at, symbol,
	)
	return err
}
