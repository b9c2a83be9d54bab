package repository

import (
	"database/sql"
	"time"

	"signalbot/internal/models"
)

// SignalRepository - чтение оценённых сигналов и учёт отклонённых
//
// Таблицу signals заполняет внешний скорер; здесь она только читается.
type SignalRepository struct {
	db *sql.DB
}

// NewSignalRepository создает новый экземпляр репозитория
func NewSignalRepository(db *sql.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// ListTradeable возвращает обработанные сигналы со score >= threshold,
// по которым ещё нет ни сделки, ни зафиксированного отклонения. Новые первыми.
func (r *SignalRepository) ListTradeable(threshold, limit int) ([]*models.Signal, error) {
	query := `
		SELECT s.id, s.source, s.score, s.symbol, s.side, s.processed, s.created_at
		FROM signals s
		WHERE s.processed = TRUE
		  AND s.score >= $1
		  AND NOT EXISTS (SELECT 1 FROM trades t WHERE t.signal_id = s.id)
		  AND NOT EXISTS (SELECT 1 FROM signal_rejections x WHERE x.signal_id = s.id)
		ORDER BY s.created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(query, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		s := &models.Signal{}
		var symbol, side sql.NullString
		if err := rows.Scan(&s.ID, &s.Source, &s.Score, &symbol, &side, &s.Processed, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Symbol = symbol.String
		s.Side = models.Side(side.String)
		signals = append(signals, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return signals, nil
}

// MarkRejected фиксирует окончательное отклонение сигнала (лимит риска или ручной reject).
// Повторная запись для того же сигнала игнорируется.
func (r *SignalRepository) MarkRejected(signalID int, reason string, at time.Time) error {
	query := `
		INSERT INTO signal_rejections (signal_id, reason, rejected_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (signal_id) DO NOTHING`

	_, err := r.db.Exec(query, signalID, reason, at)
	return err
}
