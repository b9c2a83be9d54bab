package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"signalbot/internal/bot"
	"signalbot/internal/models"
	"signalbot/internal/repository"
)

// TradingConfig - параметры расчёта сделок и лимиты риска
type TradingConfig struct {
	PositionSizePercent decimal.Decimal `json:"position_size_percent"`
	StopLossPercent     decimal.Decimal `json:"stop_loss_percent"`
	TakeProfitPercent   decimal.Decimal `json:"take_profit_percent"`
	MaxDailyDrawdown    decimal.Decimal `json:"max_daily_drawdown"`
	MaxOpenPositions    int             `json:"max_open_positions"`
}

// SettingsService предоставляет бизнес-логику для торговых настроек.
//
// Отвечает за:
// - Чтение текущих долей позиции, SL/TP и лимитов риска
// - Частичное обновление с валидацией
// - Сохранение изменений в БД и их восстановление при старте
//
// Изменения применяются к следующим сигналам; SL/TP открытых сделок не меняются.
type SettingsService struct {
	executor TradeExecutor
	risk     RiskController
	store    SettingsRepositoryInterface // nil = изменения живут до перезапуска
}

// NewSettingsService создает новый экземпляр SettingsService.
func NewSettingsService(executor TradeExecutor, risk RiskController, store SettingsRepositoryInterface) *SettingsService {
	return &SettingsService{executor: executor, risk: risk, store: store}
}

// LoadPersisted применяет сохранённые настройки поверх значений окружения.
// Возвращает false, если сохранённых настроек нет.
func (s *SettingsService) LoadPersisted() (bool, error) {
	if s.store == nil {
		return false, nil
	}
	saved, err := s.store.Get()
	if errors.Is(err, repository.ErrSettingsNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	sizing := bot.SizingConfig{
		PositionSizePercent: saved.PositionSizePercent,
		StopLossPercent:     saved.StopLossPercent,
		TakeProfitPercent:   saved.TakeProfitPercent,
	}
	limits := bot.RiskLimits{
		MaxDailyDrawdown: saved.MaxDailyDrawdown,
		MaxOpenPositions: saved.MaxOpenPositions,
	}
	if err := s.apply(sizing, limits, false); err != nil {
		return false, fmt.Errorf("stored settings: %w", err)
	}
	return true, nil
}

// GetTradingConfig возвращает текущие настройки
func (s *SettingsService) GetTradingConfig() *TradingConfig {
	sizing := s.executor.Sizing()
	limits := s.risk.Limits()
	return &TradingConfig{
		PositionSizePercent: sizing.PositionSizePercent,
		StopLossPercent:     sizing.StopLossPercent,
		TakeProfitPercent:   sizing.TakeProfitPercent,
		MaxDailyDrawdown:    limits.MaxDailyDrawdown,
		MaxOpenPositions:    limits.MaxOpenPositions,
	}
}

// UpdateTradingConfigRequest представляет запрос на обновление настроек.
// Все поля опциональны - обновляются только переданные.
type UpdateTradingConfigRequest struct {
	PositionSizePercent *decimal.Decimal `json:"position_size_percent,omitempty"`
	StopLossPercent     *decimal.Decimal `json:"stop_loss_percent,omitempty"`
	TakeProfitPercent   *decimal.Decimal `json:"take_profit_percent,omitempty"`
	MaxDailyDrawdown    *decimal.Decimal `json:"max_daily_drawdown,omitempty"`
	MaxOpenPositions    *int             `json:"max_open_positions,omitempty"`
}

// UpdateTradingConfig обновляет настройки.
//
// Правила валидации:
// - доли позиции, SL, TP и просадки: в диапазоне (0, 1]
// - max_open_positions: >= 1
//
// Сначала проверяются обе группы, затем сохраняются и применяются: частичного применения нет.
func (s *SettingsService) UpdateTradingConfig(req *UpdateTradingConfigRequest) (*TradingConfig, error) {
	sizing := s.executor.Sizing()
	limits := s.risk.Limits()

	if req.PositionSizePercent != nil {
		sizing.PositionSizePercent = *req.PositionSizePercent
	}
	if req.StopLossPercent != nil {
		sizing.StopLossPercent = *req.StopLossPercent
	}
	if req.TakeProfitPercent != nil {
		sizing.TakeProfitPercent = *req.TakeProfitPercent
	}
	if req.MaxDailyDrawdown != nil {
		limits.MaxDailyDrawdown = *req.MaxDailyDrawdown
	}
	if req.MaxOpenPositions != nil {
		limits.MaxOpenPositions = *req.MaxOpenPositions
	}

	if err := s.apply(sizing, limits, true); err != nil {
		return nil, err
	}

	return s.GetTradingConfig(), nil
}

// apply проверяет обе группы, при persist сохраняет и только затем применяет
func (s *SettingsService) apply(sizing bot.SizingConfig, limits bot.RiskLimits, persist bool) error {
	if err := sizing.Validate(); err != nil {
		return err
	}
	if err := limits.Validate(); err != nil {
		return err
	}

	if persist && s.store != nil {
		err := s.store.Save(&models.Settings{
			PositionSizePercent: sizing.PositionSizePercent,
			StopLossPercent:     sizing.StopLossPercent,
			TakeProfitPercent:   sizing.TakeProfitPercent,
			MaxDailyDrawdown:    limits.MaxDailyDrawdown,
			MaxOpenPositions:    limits.MaxOpenPositions,
		})
		if err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}

	if err := s.executor.UpdateSizing(sizing); err != nil {
		return err
	}
	return s.risk.UpdateLimits(limits)
}

// IsValidationError - ошибка вызвана некорректными значениями настроек
func IsValidationError(err error) bool {
	return errors.Is(err, bot.ErrInvalidSizing) || errors.Is(err, bot.ErrInvalidLimits)
}
