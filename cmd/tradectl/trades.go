package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"signalbot/internal/models"
	"signalbot/internal/repository"
	"signalbot/internal/service"
	"signalbot/pkg/utils"
)

const dateLayout = "2006-01-02"

func newTradesCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List and export trades",
	}
	cmd.AddCommand(newTradesListCmd(rc), newTradesExportCmd(rc), newTradesStatsCmd(rc))
	return cmd
}

func newTradesListCmd(rc *rootConfig) *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			status = strings.ToUpper(status)
			switch status {
			case "", models.TradeStatusOpen, models.TradeStatusClosed, models.TradeStatusCancelled:
			default:
				return fmt.Errorf("unknown status %q", status)
			}

			db, err := rc.DB()
			if err != nil {
				return err
			}
			trades, err := repository.NewTradeRepository(db).GetRecent(status, limit)
			if err != nil {
				return err
			}
			renderTrades(cmd.OutOrStdout(), trades)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "OPEN, CLOSED or CANCELLED")
	cmd.Flags().IntVar(&limit, "limit", 50, "max trades")
	return cmd
}

func newTradesExportCmd(rc *rootConfig) *cobra.Command {
	var (
		out      string
		fromFlag string
		toFlag   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export closed trades to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := parseRange(fromFlag, toFlag, time.Now().UTC())
			if err != nil {
				return err
			}

			db, err := rc.DB()
			if err != nil {
				return err
			}
			trades, err := repository.NewTradeRepository(db).GetClosedBetween(tr.Start, tr.End)
			if err != nil {
				return err
			}
			if err := writeTradesWorkbook(out, trades); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d trades to %s\n", len(trades), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "trades.xlsx", "output file")
	cmd.Flags().StringVar(&fromFlag, "from", "", "start date YYYY-MM-DD (default: 30 days back)")
	cmd.Flags().StringVar(&toFlag, "to", "", "end date YYYY-MM-DD inclusive (default: now)")
	return cmd
}

// parseRange разбирает границы экспорта в целые дни UTC; по умолчанию последние 30 дней
func parseRange(fromFlag, toFlag string, now time.Time) (utils.TimeRange, error) {
	tr := utils.LastNDays(now, 30)

	if fromFlag != "" {
		t, err := time.Parse(dateLayout, fromFlag)
		if err != nil {
			return utils.TimeRange{}, fmt.Errorf("invalid --from: %w", err)
		}
		tr.Start = utils.GetDayStartFrom(t)
	}
	if toFlag != "" {
		t, err := time.Parse(dateLayout, toFlag)
		if err != nil {
			return utils.TimeRange{}, fmt.Errorf("invalid --to: %w", err)
		}
		tr.End = utils.GetDayEndFrom(t)
	}
	if tr.Duration() < 0 {
		return utils.TimeRange{}, fmt.Errorf("--to is before --from")
	}
	return tr, nil
}

func renderTrades(w io.Writer, trades []*models.Trade) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("TRADES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Signal", "Symbol", "Side", "Qty", "Entry", "SL", "TP", "Status", "Exit", "PnL", "Reason"})

	total := decimal.Zero
	for _, tr := range trades {
		pnl := ""
		if tr.RealizedPnL.Valid {
			pnl = tr.RealizedPnL.Decimal.StringFixed(2)
			total = total.Add(tr.RealizedPnL.Decimal)
		}
		exit := ""
		if tr.ExitPrice.Valid {
			exit = tr.ExitPrice.Decimal.String()
		}
		t.AppendRow(table.Row{
			tr.ID, tr.SignalID, tr.Symbol, tr.Side,
			tr.Quantity.String(), tr.EntryPrice.String(),
			tr.StopLoss.String(), tr.TakeProfit.String(),
			tr.Status, exit, pnl, tr.CloseReason,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "", "", "total", total.StringFixed(2), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 11, Align: text.AlignRight},
	})
	t.Render()
}

func newTradesStatsCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show win rate, PnL and top symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rc.DB()
			if err != nil {
				return err
			}
			stats, err := service.NewStatsService(repository.NewStatsRepository(db)).GetTradeStats()
			if err != nil {
				return err
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func renderStats(w io.Writer, s *models.TradeStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("STATS")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Open positions", s.OpenPositions},
		{"Closed trades", s.TotalTrades},
		{"Wins / losses", fmt.Sprintf("%d / %d", s.WinningTrades, s.LosingTrades)},
		{"Win rate, %", s.WinRatePercent.StringFixed(2)},
		{"Average win", s.AverageWin.String()},
		{"Average loss", s.AverageLoss.String()},
		{"Profit factor", s.ProfitFactor.StringFixed(2)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Realized PnL", s.TotalRealizedPnL.StringFixed(2)},
		{"Today PnL", s.DailyPnL.StringFixed(2)},
	})
	for _, st := range s.TopSymbols {
		t.AppendSeparator()
		t.AppendRow(table.Row{st.Symbol, fmt.Sprintf("%s (%d)", st.PnL.StringFixed(2), st.Trades)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()
}

func newPositionsCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Show persisted ledger positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rc.DB()
			if err != nil {
				return err
			}
			positions, err := repository.NewPositionRepository(db).GetAll()
			if err != nil {
				return err
			}
			renderPositions(cmd.OutOrStdout(), positions)
			return nil
		},
	}
}

func renderPositions(w io.Writer, positions []*models.Position) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("POSITIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Side", "Size", "Entry", "Unrealized", "Updated"})

	for _, p := range positions {
		t.AppendRow(table.Row{
			p.Symbol, p.Side(), p.Size.String(), p.EntryPrice.String(),
			p.UnrealizedPnL.StringFixed(2), p.UpdatedAt.Format(time.RFC3339),
		})
	}
	t.Render()
}
