package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"signalbot/internal/models"
	"signalbot/internal/repository"
)

func newDeadLetterCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deadletter",
		Aliases: []string{"dl"},
		Short:   "Inspect the reconciliation journal",
	}
	cmd.AddCommand(newDeadLetterListCmd(rc), newDeadLetterPurgeCmd(rc))
	return cmd
}

func newDeadLetterListCmd(rc *rootConfig) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent failed operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rc.DB()
			if err != nil {
				return err
			}
			tasks, err := repository.NewFailedTaskRepository(db).GetRecent(limit)
			if err != nil {
				return err
			}
			renderDeadLetters(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "max entries")
	return cmd
}

func newDeadLetterPurgeCmd(rc *rootConfig) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete entries older than N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be >= 1")
			}
			db, err := rc.DB()
			if err != nil {
				return err
			}
			removed, err := repository.NewFailedTaskRepository(db).
				DeleteOlderThan(time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "retention in days")
	return cmd
}

// renderDeadLetters печатает журнал сверки; payload обрезается до 60 символов
func renderDeadLetters(w io.Writer, tasks []*models.FailedTask) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("DEAD LETTERS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Operation", "Reason", "Payload", "Created"})

	for _, task := range tasks {
		t.AppendRow(table.Row{
			task.ID,
			task.Operation,
			task.Reason,
			truncate(string(task.Payload), 60),
			task.CreatedAt.Format(time.RFC3339),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "total", len(tasks)})
	t.Render()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
