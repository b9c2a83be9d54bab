//go:build integration

// Интеграционные тесты репозиториев на живом Postgres.
//
// Run with: go test -tags=integration ./internal/repository/...
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"signalbot/internal/models"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDB подключается к тестовой базе и создает схему; без базы тест пропускается
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5432"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "signalbot_test"),
		getEnv("TEST_DB_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Skipf("Skipping integration test: cannot open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
	}
	db.SetMaxOpenConns(5)

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("EnsureSchema: %v", err)
	}
	truncateAll(t, db)

	t.Cleanup(func() {
		truncateAll(t, db)
		db.Close()
	})
	return db
}

func truncateAll(t *testing.T, db *sql.DB) {
	for _, table := range []string{"signals", "trades", "signal_rejections", "positions", "failed_tasks", "settings", "notifications"} {
		if _, err := db.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY"); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}

func TestIntegration_SchemaIdempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}

func TestIntegration_SignalToTradeLifecycle(t *testing.T) {
	db := setupTestDB(t)

	signals := NewSignalRepository(db)
	trades := NewTradeRepository(db)
	stats := NewStatsRepository(db)

	now := time.Now().UTC()
	for i, score := range []int{90, 40, 85} {
		_, err := db.Exec(`INSERT INTO signals (source, score, symbol, side, processed, created_at)
			VALUES ('scorer', $1, 'BTCUSDT', 'LONG', TRUE, $2)`, score, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatal(err)
		}
	}

	tradeable, err := signals.ListTradeable(70, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tradeable) != 2 || tradeable[0].Score != 85 {
		t.Fatalf("tradeable = %+v", tradeable)
	}

	trade := &models.Trade{
		SignalID:   tradeable[0].ID,
		Symbol:     "BTCUSDT",
		Side:       models.SideLong,
		Quantity:   decimal.RequireFromString("0.01"),
		EntryPrice: decimal.NewFromInt(50000),
		StopLoss:   decimal.NewFromInt(49000),
		TakeProfit: decimal.NewFromInt(52000),
		OrderID:    "ord-1",
	}
	if err := trades.Create(trade); err != nil {
		t.Fatal(err)
	}
	dup := *trade
	if err := trades.Create(&dup); !errors.Is(err, ErrTradeAlreadyExists) {
		t.Errorf("duplicate create: %v", err)
	}

	if err := signals.MarkRejected(tradeable[1].ID, "risk limit", now); err != nil {
		t.Fatal(err)
	}
	if left, _ := signals.ListTradeable(70, 10); len(left) != 0 {
		t.Errorf("signals still tradeable: %+v", left)
	}

	if err := trades.MarkClosed(trade.ID, decimal.NewFromInt(52000), decimal.NewFromInt(20), models.CloseReasonTakeProfit, now); err != nil {
		t.Fatal(err)
	}
	if err := trades.MarkClosed(trade.ID, decimal.NewFromInt(52000), decimal.NewFromInt(20), models.CloseReasonTakeProfit, now); !errors.Is(err, ErrTradeNotOpen) {
		t.Errorf("second close: %v", err)
	}

	st, err := stats.GetTradeStats(now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalTrades != 1 || st.WinningTrades != 1 || !st.DailyPnL.Equal(decimal.NewFromInt(20)) {
		t.Errorf("stats = %+v", st)
	}
	top, err := stats.GetTopSymbolsByProfit(5)
	if err != nil || len(top) != 1 || top[0].Symbol != "BTCUSDT" {
		t.Errorf("top = %+v, %v", top, err)
	}
}

func TestIntegration_PositionsAndJournals(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	positions := NewPositionRepository(db)
	p := &models.Position{Symbol: "ETHUSDT", Size: decimal.RequireFromString("-1.5"), EntryPrice: decimal.NewFromInt(3000), Leverage: 1, UpdatedAt: now}
	if err := positions.Upsert(p); err != nil {
		t.Fatal(err)
	}
	got, err := positions.GetBySymbol("ETHUSDT")
	if err != nil || !got.Size.Equal(p.Size) {
		t.Fatalf("position = %+v, %v", got, err)
	}
	if err := positions.Delete("ETHUSDT"); err != nil {
		t.Fatal(err)
	}
	if _, err := positions.GetBySymbol("ETHUSDT"); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("after delete: %v", err)
	}

	notifications := NewNotificationRepository(db)
	for _, typ := range []string{models.NotificationTypeOpen, models.NotificationTypeSL, models.NotificationTypeClose} {
		if err := notifications.Create(&models.Notification{Type: typ, Severity: models.SeverityInfo, Message: typ}); err != nil {
			t.Fatal(err)
		}
	}
	onlySL, err := notifications.GetRecent(10, []string{models.NotificationTypeSL})
	if err != nil || len(onlySL) != 1 {
		t.Errorf("filtered = %+v, %v", onlySL, err)
	}
	if n, err := notifications.DeleteOlderThan(now.Add(time.Hour)); err != nil || n != 3 {
		t.Errorf("purged %d, %v", n, err)
	}

	settings := NewSettingsRepository(db)
	if _, err := settings.Get(); !errors.Is(err, ErrSettingsNotFound) {
		t.Errorf("empty settings: %v", err)
	}
	s := &models.Settings{
		PositionSizePercent: decimal.RequireFromString("0.02"),
		StopLossPercent:     decimal.RequireFromString("0.01"),
		TakeProfitPercent:   decimal.RequireFromString("0.03"),
		MaxDailyDrawdown:    decimal.RequireFromString("0.05"),
		MaxOpenPositions:    3,
	}
	if err := settings.Save(s); err != nil {
		t.Fatal(err)
	}
	s.MaxOpenPositions = 5
	if err := settings.Save(s); err != nil {
		t.Fatal(err)
	}
	if saved, err := settings.Get(); err != nil || saved.MaxOpenPositions != 5 {
		t.Errorf("saved = %+v, %v", saved, err)
	}
}
