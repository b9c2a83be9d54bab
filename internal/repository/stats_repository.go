package repository

import (
	"database/sql"
	"time"

	"signalbot/internal/models"
)

// StatsRepository - агрегаты по таблице trades
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository создает новый экземпляр StatsRepository
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetTradeStats считает счётчики и средние одним запросом; dayStart - граница дневного PnL
func (r *StatsRepository) GetTradeStats(dayStart time.Time) (*models.TradeStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'OPEN'),
			COALESCE(SUM(realized_pnl) FILTER (WHERE status = 'CLOSED'), 0),
			COALESCE(SUM(realized_pnl) FILTER (WHERE status = 'CLOSED' AND closed_at >= $1), 0),
			COUNT(*) FILTER (WHERE status = 'CLOSED'),
			COUNT(*) FILTER (WHERE status = 'CLOSED' AND realized_pnl > 0),
			COUNT(*) FILTER (WHERE status = 'CLOSED' AND realized_pnl < 0),
			COALESCE(AVG(realized_pnl) FILTER (WHERE status = 'CLOSED' AND realized_pnl > 0), 0),
			COALESCE(AVG(realized_pnl) FILTER (WHERE status = 'CLOSED' AND realized_pnl < 0), 0)
		FROM trades`

	s := &models.TradeStats{}
	err := r.db.QueryRow(query, dayStart).Scan(
		&s.OpenPositions,
		&s.TotalRealizedPnL,
		&s.DailyPnL,
		&s.TotalTrades,
		&s.WinningTrades,
		&s.LosingTrades,
		&s.AverageWin,
		&s.AverageLoss,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetTopSymbolsByProfit возвращает символы с наибольшим реализованным PnL
func (r *StatsRepository) GetTopSymbolsByProfit(limit int) ([]models.SymbolStat, error) {
	query := `
		SELECT symbol, COUNT(*), COALESCE(SUM(realized_pnl), 0) AS pnl
		FROM trades
		WHERE status = 'CLOSED'
		GROUP BY symbol
		ORDER BY pnl DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SymbolStat
	for rows.Next() {
		var st models.SymbolStat
		if err := rows.Scan(&st.Symbol, &st.Trades, &st.PnL); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
