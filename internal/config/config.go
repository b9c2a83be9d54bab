package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"signalbot/pkg/crypto"
	"signalbot/pkg/utils"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Trading  TradingConfig
	Gateway  GatewayConfig
	Workers  WorkersConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера панели управления
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string
	ShutdownWait   time.Duration
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// SecurityConfig - доступ к панели управления
type SecurityConfig struct {
	// ControlTokenHash - bcrypt-хеш bearer-токена. Пусто = API без авторизации (только для dev)
	ControlTokenHash string
}

// TradingConfig - торговые параметры и лимиты риска
type TradingConfig struct {
	SignalThreshold     int             // минимальный score сигнала
	PositionSizePercent decimal.Decimal // доля баланса на сделку (0.01 = 1%)
	StopLossPercent     decimal.Decimal
	TakeProfitPercent   decimal.Decimal
	MaxDailyDrawdown    decimal.Decimal // доля баланса (0.05 = 5%)
	MaxOpenPositions    int
	ManualOverride      bool // начальное состояние ручного одобрения
	QuoteAsset          string
	DefaultSymbol       string
	DefaultSide         string
	IntakeBatchSize     int
}

// GatewayConfig - подключение к шлюзу исполнения
type GatewayConfig struct {
	Kind        string // bybit | paper
	APIKey      string
	APISecret   string
	Testnet     bool
	CallTimeout time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RetryJitter    float64

	RateLimit float64 // запросов/сек на категорию
	RateBurst float64

	// Стартовый баланс paper-шлюза
	PaperBalance decimal.Decimal
	// Начальные цены paper-шлюза: PAPER_PRICES=BTCUSDT:50000,ETHUSDT:3000
	PaperPrices   map[string]decimal.Decimal
	PaperStepSize decimal.Decimal
}

// WorkersConfig - периодические задачи
type WorkersConfig struct {
	IntakeInterval        time.Duration
	MonitorInterval       time.Duration
	PnLInterval           time.Duration
	CleanupInterval       time.Duration
	PendingMaxAge         time.Duration
	DeadLetterRetention   time.Duration
	NotificationRetention time.Duration
	TaskTimeout           time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	// отсутствие .env не ошибка: в проде переменные задаются окружением
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownWait:   getEnvAsDuration("SHUTDOWN_WAIT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			Name:         getEnv("DB_NAME", "signalbot"),
			User:         getEnv("DB_USER", "signalbot"),
			Password:     getEnv("DB_PASSWORD", ""),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Security: SecurityConfig{
			ControlTokenHash: getEnv("CONTROL_TOKEN_HASH", ""),
		},
		Trading: TradingConfig{
			SignalThreshold:     getEnvAsInt("TRADING_SIGNAL_THRESHOLD", 70),
			PositionSizePercent: getEnvAsDecimal("TRADING_POSITION_SIZE_PERCENT", "0.01"),
			StopLossPercent:     getEnvAsDecimal("TRADING_STOP_LOSS_PERCENT", "0.02"),
			TakeProfitPercent:   getEnvAsDecimal("TRADING_TAKE_PROFIT_PERCENT", "0.04"),
			MaxDailyDrawdown:    getEnvAsDecimal("TRADING_MAX_DAILY_DRAWDOWN", "0.05"),
			MaxOpenPositions:    getEnvAsInt("TRADING_MAX_OPEN_POSITIONS", 5),
			ManualOverride:      getEnvAsBool("TRADING_MANUAL_OVERRIDE", false),
			QuoteAsset:          strings.ToUpper(getEnv("TRADING_QUOTE_ASSET", "USDT")),
			DefaultSymbol:       utils.NormalizeSymbol(getEnv("TRADING_DEFAULT_SYMBOL", "BTCUSDT")),
			DefaultSide:         strings.ToUpper(getEnv("TRADING_DEFAULT_SIDE", "LONG")),
			IntakeBatchSize:     getEnvAsInt("TRADING_INTAKE_BATCH", 10),
		},
		Gateway: GatewayConfig{
			Kind:           strings.ToLower(getEnv("GATEWAY", "paper")),
			APIKey:         getEnv("BYBIT_API_KEY", ""),
			APISecret:      getEnv("BYBIT_API_SECRET", ""),
			Testnet:        getEnvAsBool("BYBIT_TESTNET", true),
			CallTimeout:    getEnvAsDuration("GATEWAY_CALL_TIMEOUT", 10*time.Second),
			RetryAttempts:  getEnvAsInt("GATEWAY_RETRY_ATTEMPTS", 3),
			RetryBaseDelay: getEnvAsDuration("GATEWAY_RETRY_BASE_DELAY", time.Second),
			RetryMaxDelay:  getEnvAsDuration("GATEWAY_RETRY_MAX_DELAY", 30*time.Second),
			RetryJitter:    getEnvAsFloat("GATEWAY_RETRY_JITTER", 0.1),
			RateLimit:      getEnvAsFloat("GATEWAY_RATE_LIMIT", 10),
			RateBurst:      getEnvAsFloat("GATEWAY_RATE_BURST", 20),
			PaperBalance:   getEnvAsDecimal("PAPER_BALANCE", "10000"),
			PaperPrices:    getEnvAsPriceMap("PAPER_PRICES"),
			PaperStepSize:  getEnvAsDecimal("PAPER_STEP_SIZE", "0.001"),
		},
		Workers: WorkersConfig{
			IntakeInterval:        getEnvAsDuration("WORKER_INTAKE_INTERVAL", 30*time.Second),
			MonitorInterval:       getEnvAsDuration("WORKER_MONITOR_INTERVAL", 10*time.Second),
			PnLInterval:           getEnvAsDuration("WORKER_PNL_INTERVAL", 30*time.Second),
			CleanupInterval:       getEnvAsDuration("WORKER_CLEANUP_INTERVAL", time.Hour),
			PendingMaxAge:         getEnvAsDuration("PENDING_MAX_AGE", 24*time.Hour),
			DeadLetterRetention:   getEnvAsDuration("DEAD_LETTER_RETENTION", 30*24*time.Hour),
			NotificationRetention: getEnvAsDuration("NOTIFICATION_RETENTION", 7*24*time.Hour),
			TaskTimeout:           getEnvAsDuration("WORKER_TASK_TIMEOUT", time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", ""),
		},
	}

	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurity проверяет ключи шлюза и хеш токена
func (c *Config) validateSecurity() error {
	if c.Gateway.Kind == "bybit" && (c.Gateway.APIKey == "" || c.Gateway.APISecret == "") {
		return fmt.Errorf("BYBIT_API_KEY and BYBIT_API_SECRET are required when GATEWAY=bybit")
	}
	if c.Security.ControlTokenHash != "" && !crypto.ValidHash(c.Security.ControlTokenHash) {
		return fmt.Errorf("CONTROL_TOKEN_HASH is not a bcrypt hash")
	}
	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	var errs utils.ValidationErrors

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.Add("SERVER_PORT", fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		errs.Add("DB_PORT", fmt.Sprintf("must be between 1 and 65535, got %d", c.Database.Port))
	}

	t := c.Trading
	if t.SignalThreshold < 0 || t.SignalThreshold > 100 {
		errs.Add("TRADING_SIGNAL_THRESHOLD", fmt.Sprintf("must be between 0 and 100, got %d", t.SignalThreshold))
	}
	errs.AddError("TRADING_POSITION_SIZE_PERCENT", utils.ValidateFraction(t.PositionSizePercent))
	errs.AddError("TRADING_STOP_LOSS_PERCENT", utils.ValidateFraction(t.StopLossPercent))
	errs.AddError("TRADING_TAKE_PROFIT_PERCENT", utils.ValidateFraction(t.TakeProfitPercent))
	errs.AddError("TRADING_MAX_DAILY_DRAWDOWN", utils.ValidateFraction(t.MaxDailyDrawdown))
	if t.MaxOpenPositions < 1 {
		errs.Add("TRADING_MAX_OPEN_POSITIONS", fmt.Sprintf("must be at least 1, got %d", t.MaxOpenPositions))
	}
	if _, err := utils.NormalizeSide(t.DefaultSide); err != nil {
		errs.AddError("TRADING_DEFAULT_SIDE", err)
	}
	errs.AddError("TRADING_DEFAULT_SYMBOL", utils.ValidateSymbol(t.DefaultSymbol))
	if t.IntakeBatchSize < 1 {
		errs.Add("TRADING_INTAKE_BATCH", fmt.Sprintf("must be at least 1, got %d", t.IntakeBatchSize))
	}

	g := c.Gateway
	if g.Kind != "bybit" && g.Kind != "paper" {
		errs.Add("GATEWAY", fmt.Sprintf("must be bybit or paper, got %q", g.Kind))
	}
	if g.CallTimeout <= 0 {
		errs.Add("GATEWAY_CALL_TIMEOUT", "must be positive")
	}
	if g.RetryAttempts < 1 || g.RetryAttempts > 10 {
		errs.Add("GATEWAY_RETRY_ATTEMPTS", fmt.Sprintf("must be between 1 and 10, got %d", g.RetryAttempts))
	}

	w := c.Workers
	for name, d := range map[string]time.Duration{
		"WORKER_INTAKE_INTERVAL":  w.IntakeInterval,
		"WORKER_MONITOR_INTERVAL": w.MonitorInterval,
		"WORKER_PNL_INTERVAL":     w.PnLInterval,
		"WORKER_CLEANUP_INTERVAL": w.CleanupInterval,
		"WORKER_TASK_TIMEOUT":     w.TaskTimeout,
	} {
		if d <= 0 {
			errs.Add(name, "must be positive")
		}
	}
	if w.PendingMaxAge < time.Minute {
		errs.Add("PENDING_MAX_AGE", "must be at least 1m")
	}

	if errs.HasErrors() {
		return fmt.Errorf("invalid configuration: %w", errs)
	}
	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key, defaultValue string) decimal.Decimal {
	if value, err := decimal.NewFromString(os.Getenv(key)); err == nil {
		return value
	}
	return decimal.RequireFromString(defaultValue)
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsPriceMap разбирает SYMBOL:PRICE через запятую; невалидные пары пропускаются
func getEnvAsPriceMap(key string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, pair := range getEnvAsList(key, nil) {
		symbol, raw, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || !price.IsPositive() {
			continue
		}
		out[utils.NormalizeSymbol(symbol)] = price
	}
	return out
}
