package service

import (
	"time"

	"signalbot/internal/models"
	"signalbot/pkg/utils"
)

const topSymbolsLimit = 5

// StatsService считает сводную статистику по сделкам.
//
// Дневной PnL берется с начала текущих суток UTC.
type StatsService struct {
	repo StatsRepositoryInterface
	now  func() time.Time
}

// NewStatsService создает сервис статистики
func NewStatsService(repo StatsRepositoryInterface) *StatsService {
	return &StatsService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// GetTradeStats возвращает счетчики, средние и топ символов по прибыли
func (s *StatsService) GetTradeStats() (*models.TradeStats, error) {
	stats, err := s.repo.GetTradeStats(utils.GetDayStartFrom(s.now()))
	if err != nil {
		return nil, err
	}

	top, err := s.repo.GetTopSymbolsByProfit(topSymbolsLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []models.SymbolStat{}
	}
	stats.TopSymbols = top

	stats.Derive()
	return stats, nil
}
