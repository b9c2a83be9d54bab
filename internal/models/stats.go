package models

import "github.com/shopspring/decimal"

// TradeStats - сводная статистика по сделкам
type TradeStats struct {
	OpenPositions    int             `json:"open_positions"`
	TotalRealizedPnL decimal.Decimal `json:"total_realized_pnl"`
	DailyPnL         decimal.Decimal `json:"daily_pnl"`
	TotalTrades      int             `json:"total_trades"` // только закрытые
	WinningTrades    int             `json:"winning_trades"`
	LosingTrades     int             `json:"losing_trades"`
	WinRatePercent   decimal.Decimal `json:"win_rate_percent"`
	AverageWin       decimal.Decimal `json:"average_win"`
	AverageLoss      decimal.Decimal `json:"average_loss"`
	ProfitFactor     decimal.Decimal `json:"profit_factor"` // |avg win / avg loss|, 0 без убыточных
	TopSymbols       []SymbolStat    `json:"top_symbols"`   // по прибыли, топ-5
}

// SymbolStat - итог по одному символу
type SymbolStat struct {
	Symbol string          `json:"symbol"`
	Trades int             `json:"trades"`
	PnL    decimal.Decimal `json:"pnl"`
}

// Derive считает производные показатели из счётчиков и средних
func (s *TradeStats) Derive() {
	s.WinRatePercent = decimal.Zero
	if s.TotalTrades > 0 {
		s.WinRatePercent = decimal.NewFromInt(int64(s.WinningTrades)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(s.TotalTrades))).
			Round(2)
	}
	s.ProfitFactor = decimal.Zero
	if !s.AverageLoss.IsZero() {
		s.ProfitFactor = s.AverageWin.Div(s.AverageLoss).Abs().Round(2)
	}
	s.AverageWin = s.AverageWin.Round(4)
	s.AverageLoss = s.AverageLoss.Round(4)
}
