package repository

import (
	"database/sql"
	"errors"
	"time"

	"signalbot/internal/models"
)

// Ошибки репозитория настроек
var (
	ErrSettingsNotFound = errors.New("settings not found")
)

// SettingsRepository - работа с таблицей settings
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository создает новый экземпляр репозитория
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get возвращает сохранённые настройки (всегда id=1, одна запись).
// Если настройки ещё не менялись, возвращает ErrSettingsNotFound.
func (r *SettingsRepository) Get() (*models.Settings, error) {
	query := `
		SELECT id, position_size_percent, stop_loss_percent, take_profit_percent,
		       max_daily_drawdown, max_open_positions, updated_at
		FROM settings
		WHERE id = 1`

	s := &models.Settings{}
	err := r.db.QueryRow(query).Scan(
		&s.ID,
		&s.PositionSizePercent,
		&s.StopLossPercent,
		&s.TakeProfitPercent,
		&s.MaxDailyDrawdown,
		&s.MaxOpenPositions,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return s, nil
}

// Save записывает настройки целиком (upsert записи id=1)
func (r *SettingsRepository) Save(s *models.Settings) error {
	query := `
		INSERT INTO settings (id, position_size_percent, stop_loss_percent, take_profit_percent,
		                      max_daily_drawdown, max_open_positions, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			position_size_percent = EXCLUDED.position_size_percent,
			stop_loss_percent     = EXCLUDED.stop_loss_percent,
			take_profit_percent   = EXCLUDED.take_profit_percent,
			max_daily_drawdown    = EXCLUDED.max_daily_drawdown,
			max_open_positions    = EXCLUDED.max_open_positions,
			updated_at            = EXCLUDED.updated_at`

	s.ID = 1
	s.UpdatedAt = time.Now().UTC()

	_, err := r.db.Exec(query,
		s.PositionSizePercent,
		s.StopLossPercent,
		s.TakeProfitPercent,
		s.MaxDailyDrawdown,
		s.MaxOpenPositions,
		s.UpdatedAt,
	)
	return err
}

// Reset удаляет сохранённые настройки: при следующем старте действуют значения окружения
func (r *SettingsRepository) Reset() error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE id = 1`)
	return err
}
