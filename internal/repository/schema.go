package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// schema - DDL хранилища. Все выражения идемпотентны (IF NOT EXISTS),
// поэтому EnsureSchema безопасно вызывать при каждом старте.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id          SERIAL PRIMARY KEY,
		source      TEXT NOT NULL DEFAULT '',
		score       INTEGER NOT NULL,
		symbol      TEXT,
		side        TEXT,
		processed   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_score ON signals (processed, score, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS trades (
		id           SERIAL PRIMARY KEY,
		signal_id    INTEGER NOT NULL,
		symbol       TEXT NOT NULL,
		side         TEXT NOT NULL CHECK (side IN ('LONG', 'SHORT')),
		quantity     NUMERIC(36, 18) NOT NULL CHECK (quantity > 0),
		entry_price  NUMERIC(36, 18) NOT NULL,
		stop_loss    NUMERIC(36, 18) NOT NULL,
		take_profit  NUMERIC(36, 18) NOT NULL,
		status       TEXT NOT NULL,
		exit_price   NUMERIC(36, 18),
		realized_pnl NUMERIC(36, 18),
		order_id     TEXT,
		close_reason TEXT,
		created_at   TIMESTAMPTZ NOT NULL,
		closed_at    TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_trades_signal ON trades (signal_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_status ON trades (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_closed ON trades (closed_at) WHERE status = 'CLOSED'`,

	`CREATE TABLE IF NOT EXISTS signal_rejections (
		signal_id   INTEGER PRIMARY KEY,
		reason      TEXT NOT NULL,
		rejected_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS positions (
		symbol         TEXT PRIMARY KEY,
		size           NUMERIC(36, 18) NOT NULL,
		entry_price    NUMERIC(36, 18) NOT NULL,
		leverage       INTEGER NOT NULL DEFAULT 1,
		unrealized_pnl NUMERIC(36, 18) NOT NULL DEFAULT 0,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS failed_tasks (
		id         SERIAL PRIMARY KEY,
		operation  TEXT NOT NULL,
		payload    JSONB NOT NULL DEFAULT '{}',
		reason     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_failed_tasks_created ON failed_tasks (created_at)`,

	`CREATE TABLE IF NOT EXISTS settings (
		id                    INTEGER PRIMARY KEY CHECK (id = 1),
		position_size_percent NUMERIC(10, 8) NOT NULL,
		stop_loss_percent     NUMERIC(10, 8) NOT NULL,
		take_profit_percent   NUMERIC(10, 8) NOT NULL,
		max_daily_drawdown    NUMERIC(10, 8) NOT NULL,
		max_open_positions    INTEGER NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id        SERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL,
		type      TEXT NOT NULL,
		severity  TEXT NOT NULL,
		symbol    TEXT NOT NULL DEFAULT '',
		trade_id  INTEGER,
		message   TEXT NOT NULL,
		meta      JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_ts ON notifications (timestamp DESC)`,
}

// EnsureSchema создаёт таблицы и индексы, если их нет
func EnsureSchema(db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

// isUniqueViolation - ошибка Postgres 23505 (unique_violation)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
