package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Trading.SignalThreshold != 70 {
		t.Errorf("SignalThreshold = %d, want 70", cfg.Trading.SignalThreshold)
	}
	if !cfg.Trading.MaxDailyDrawdown.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("MaxDailyDrawdown = %s, want 0.05", cfg.Trading.MaxDailyDrawdown)
	}
	if cfg.Trading.DefaultSymbol != "BTCUSDT" || cfg.Trading.DefaultSide != "LONG" {
		t.Errorf("defaults = %s/%s, want BTCUSDT/LONG", cfg.Trading.DefaultSymbol, cfg.Trading.DefaultSide)
	}
	if cfg.Trading.IntakeBatchSize != 10 {
		t.Errorf("IntakeBatchSize = %d, want 10", cfg.Trading.IntakeBatchSize)
	}
	if cfg.Gateway.Kind != "paper" {
		t.Errorf("Gateway.Kind = %q, want paper", cfg.Gateway.Kind)
	}
	if cfg.Workers.PendingMaxAge != 24*time.Hour {
		t.Errorf("PendingMaxAge = %v, want 24h", cfg.Workers.PendingMaxAge)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("TRADING_SIGNAL_THRESHOLD", "80")
	t.Setenv("TRADING_POSITION_SIZE_PERCENT", "0.02")
	t.Setenv("TRADING_MANUAL_OVERRIDE", "true")
	t.Setenv("TRADING_DEFAULT_SYMBOL", "eth-usdt")
	t.Setenv("WORKER_MONITOR_INTERVAL", "5s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Trading.SignalThreshold != 80 {
		t.Errorf("SignalThreshold = %d, want 80", cfg.Trading.SignalThreshold)
	}
	if !cfg.Trading.PositionSizePercent.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("PositionSizePercent = %s", cfg.Trading.PositionSizePercent)
	}
	if !cfg.Trading.ManualOverride {
		t.Error("ManualOverride = false, want true")
	}
	if cfg.Trading.DefaultSymbol != "ETHUSDT" {
		t.Errorf("DefaultSymbol = %q, want ETHUSDT", cfg.Trading.DefaultSymbol)
	}
	if cfg.Workers.MonitorInterval != 5*time.Second {
		t.Errorf("MonitorInterval = %v, want 5s", cfg.Workers.MonitorInterval)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("TRADING_STOP_LOSS_PERCENT", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Server.Port)
	}
	if !cfg.Trading.StopLossPercent.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("StopLossPercent = %s, want default 0.02", cfg.Trading.StopLossPercent)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"drawdown above one", "TRADING_MAX_DAILY_DRAWDOWN", "1.5", "TRADING_MAX_DAILY_DRAWDOWN"},
		{"zero positions", "TRADING_MAX_OPEN_POSITIONS", "0", "TRADING_MAX_OPEN_POSITIONS"},
		{"bad side", "TRADING_DEFAULT_SIDE", "HOLD", "TRADING_DEFAULT_SIDE"},
		{"unknown gateway", "GATEWAY", "kraken", "GATEWAY"},
		{"port range", "SERVER_PORT", "70000", "SERVER_PORT"},
		{"retry attempts", "GATEWAY_RETRY_ATTEMPTS", "0", "GATEWAY_RETRY_ATTEMPTS"},
		{"threshold", "TRADING_SIGNAL_THRESHOLD", "101", "TRADING_SIGNAL_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestLoad_BybitRequiresKeys(t *testing.T) {
	t.Setenv("GATEWAY", "bybit")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without API keys")
	}

	t.Setenv("BYBIT_API_KEY", "key")
	t.Setenv("BYBIT_API_SECRET", "secret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
}

func TestLoad_RejectsNonBcryptTokenHash(t *testing.T) {
	t.Setenv("CONTROL_TOKEN_HASH", "plaintext")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-bcrypt hash")
	}
}

func TestDSNWithoutPassword(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "secret", Name: "n", SSLMode: "disable"}

	if strings.Contains(d.DSNWithoutPassword(), "secret") {
		t.Error("DSNWithoutPassword leaks password")
	}
	if !strings.Contains(d.DSN(), "password=secret") {
		t.Error("DSN missing password")
	}
}

func TestLoad_PaperPrices(t *testing.T) {
	t.Setenv("PAPER_PRICES", "btc-usdt:50000, ETHUSDT:3000, bad, SOLUSDT:-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	prices := cfg.Gateway.PaperPrices
	if len(prices) != 2 {
		t.Fatalf("PaperPrices = %v, want 2 entries", prices)
	}
	if !prices["BTCUSDT"].Equal(decimal.RequireFromString("50000")) {
		t.Errorf("BTCUSDT = %s", prices["BTCUSDT"])
	}
	if !cfg.Gateway.PaperStepSize.Equal(decimal.RequireFromString("0.001")) {
		t.Errorf("PaperStepSize = %s", cfg.Gateway.PaperStepSize)
	}
}
