package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"signalbot/internal/models"
	"signalbot/internal/repository"
)

func newSettingsCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect trading settings saved from the control API",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show saved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rc.DB()
			if err != nil {
				return err
			}
			s, err := repository.NewSettingsRepository(db).Get()
			if errors.Is(err, repository.ErrSettingsNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved settings, environment values apply")
				return nil
			}
			if err != nil {
				return err
			}
			renderSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Drop saved settings (environment values apply after restart)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rc.DB()
			if err != nil {
				return err
			}
			if err := repository.NewSettingsRepository(db).Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved settings removed, restart the server to apply")
			return nil
		},
	}

	cmd.AddCommand(show, reset)
	return cmd
}

func renderSettings(w io.Writer, s *models.Settings) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("TRADING SETTINGS")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Position size", s.PositionSizePercent.String()},
		{"Stop loss", s.StopLossPercent.String()},
		{"Take profit", s.TakeProfitPercent.String()},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Max daily drawdown", s.MaxDailyDrawdown.String()},
		{"Max open positions", s.MaxOpenPositions},
		{"Updated", s.UpdatedAt.Format(time.RFC3339)},
	})
	t.Render()
}
