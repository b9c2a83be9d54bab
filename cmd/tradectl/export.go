package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"signalbot/internal/models"
)

const (
	tradesSheet  = "Trades"
	summarySheet = "Summary"
)

var tradeHeaders = []string{
	"ID", "Signal", "Symbol", "Side", "Quantity", "Entry", "Stop Loss",
	"Take Profit", "Exit", "Realized PnL", "Close Reason", "Opened", "Closed",
}

// writeTradesWorkbook сохраняет сделки в xlsx: лист сделок и лист итогов
func writeTradesWorkbook(path string, trades []*models.Trade) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	lossStyle, err := fx.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "C00000"}})
	if err != nil {
		return err
	}

	for i, h := range tradeHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(tradesSheet, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(tradeHeaders), 1)
	fx.SetCellStyle(tradesSheet, "A1", lastHeader, headerStyle)

	var wins, losses int
	var total float64
	for i, tr := range trades {
		row := i + 2
		pnl := 0.0
		if tr.RealizedPnL.Valid {
			pnl = tr.RealizedPnL.Decimal.InexactFloat64()
		}
		exit := 0.0
		if tr.ExitPrice.Valid {
			exit = tr.ExitPrice.Decimal.InexactFloat64()
		}
		closed := ""
		if tr.ClosedAt != nil {
			closed = tr.ClosedAt.UTC().Format("2006-01-02 15:04:05")
		}

		values := []interface{}{
			tr.ID, tr.SignalID, tr.Symbol, string(tr.Side),
			tr.Quantity.InexactFloat64(), tr.EntryPrice.InexactFloat64(),
			tr.StopLoss.InexactFloat64(), tr.TakeProfit.InexactFloat64(),
			exit, pnl, tr.CloseReason,
			tr.CreatedAt.UTC().Format("2006-01-02 15:04:05"), closed,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := fx.SetSheetRow(tradesSheet, cell, &values); err != nil {
			return err
		}

		if pnl < 0 {
			losses++
			pnlCell, _ := excelize.CoordinatesToCellName(10, row)
			fx.SetCellStyle(tradesSheet, pnlCell, pnlCell, lossStyle)
		} else if pnl > 0 {
			wins++
		}
		total += pnl
	}

	summary := [][]interface{}{
		{"Trades", len(trades)},
		{"Wins", wins},
		{"Losses", losses},
		{"Total PnL", total},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := fx.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	return fx.SaveAs(path)
}
