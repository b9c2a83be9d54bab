// tradectl - утилита оператора торгового бота.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"signalbot/internal/config"
)

// rootConfig - общее состояние команд: конфигурация и ленивое подключение к БД
type rootConfig struct {
	cfg *config.Config
	db  *sql.DB
	out io.Writer
}

// DB открывает подключение при первом обращении
func (rc *rootConfig) DB() (*sql.DB, error) {
	if rc.db != nil {
		return rc.db, nil
	}
	if rc.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		rc.cfg = cfg
	}

	db, err := sql.Open(rc.cfg.Database.Driver, rc.cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	rc.db = db
	return db, nil
}

func (rc *rootConfig) Close() {
	if rc.db != nil {
		rc.db.Close()
	}
}

func newRootCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tradectl",
		Short:         "Operator tool for the signal trading bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(rc.out)

	cmd.AddCommand(
		newDeadLetterCmd(rc),
		newTradesCmd(rc),
		newPositionsCmd(rc),
		newSettingsCmd(rc),
		newTokenCmd(rc),
	)
	return cmd
}

func main() {
	rc := &rootConfig{out: os.Stdout}
	defer rc.Close()

	if err := newRootCmd(rc).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		rc.Close()
		os.Exit(1)
	}
}
