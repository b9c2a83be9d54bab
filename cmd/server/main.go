package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"signalbot/internal/api"
	"signalbot/internal/bot"
	"signalbot/internal/config"
	"signalbot/internal/gateway"
	"signalbot/internal/repository"
	"signalbot/internal/service"
	"signalbot/internal/websocket"
	"signalbot/pkg/ratelimit"
	"signalbot/pkg/retry"
	"signalbot/pkg/utils"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", utils.Err(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *utils.Logger) error {
	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	log.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	if err := repository.EnsureSchema(db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	// Инициализация репозиториев
	tradeRepo := repository.NewTradeRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	signalRepo := repository.NewSignalRepository(db)
	failedTaskRepo := repository.NewFailedTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	gw, err := initGateway(cfg, log)
	if err != nil {
		return err
	}

	// WebSocket hub
	hub := websocket.NewHub(cfg.Server.AllowedOrigins)
	go hub.Run()
	defer hub.Stop()

	// Торговое ядро
	engine, err := bot.NewEngine(cfg, bot.EngineDeps{
		Gateway:     gw,
		Trades:      tradeRepo,
		Positions:   positionRepo,
		Signals:     signalRepo,
		FailedTasks: failedTaskRepo,
		Journal:     notificationRepo,
		Hub:         hub,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	// Настройки, сохранённые через панель, перекрывают окружение
	settingsService := service.NewSettingsService(engine.Executor(), engine.Risk(), settingsRepo)
	loaded, err := settingsService.LoadPersisted()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if loaded {
		log.Info("trading settings restored from database")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer engine.Stop()

	// Сервисы панели управления
	deps := &api.Dependencies{
		RiskService:         service.NewRiskService(engine.Risk(), engine.Queue(), engine),
		PendingService:      service.NewPendingService(engine.Queue(), engine.Executor()),
		TradeService:        service.NewTradeService(tradeRepo, failedTaskRepo, engine.Executor(), engine.Ledger()),
		SettingsService:     settingsService,
		NotificationService: service.NewNotificationService(notificationRepo),
		StatsService:        service.NewStatsService(statsRepo),
		Stream:              hub.ServeWS,
		HealthCheck: func() error {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return db.PingContext(pingCtx)
		},
		TokenHash:      cfg.Security.ControlTokenHash,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if deps.TokenHash == "" {
		log.Warn("CONTROL_TOKEN_HASH is empty: control API is not authenticated")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.SetupRoutes(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // approve/close ждут ответа площадки
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server forced to shutdown", utils.Err(err))
	}

	log.Info("server exited")
	return nil
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initGateway выбирает площадку и оборачивает её таймаутами, лимитами и повторами чтений
func initGateway(cfg *config.Config, log *utils.Logger) (gateway.Gateway, error) {
	gc := cfg.Gateway

	var inner gateway.Gateway
	switch gc.Kind {
	case "bybit":
		inner = gateway.NewBybit(gateway.BybitConfig{
			APIKey:    gc.APIKey,
			APISecret: gc.APISecret,
			Testnet:   gc.Testnet,
		})
	case "paper":
		paper := gateway.NewPaper(cfg.Trading.QuoteAsset, gc.PaperBalance)
		for symbol, price := range gc.PaperPrices {
			paper.SetPrice(symbol, price)
			paper.SetStepSize(symbol, gc.PaperStepSize)
		}
		if len(gc.PaperPrices) == 0 {
			log.Warn("paper gateway has no prices, set PAPER_PRICES=SYMBOL:PRICE")
		}
		inner = paper
	default:
		return nil, fmt.Errorf("unknown gateway %q (want bybit or paper)", gc.Kind)
	}

	limiter := ratelimit.NewMultiLimiter().
		Add(ratelimit.CategoryMarket, gc.RateLimit, gc.RateBurst).
		Add(ratelimit.CategoryAccount, gc.RateLimit, gc.RateBurst).
		Add(ratelimit.CategoryOrders, gc.RateLimit, gc.RateBurst)

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = gc.RetryAttempts
	policy.BaseDelay = gc.RetryBaseDelay
	policy.MaxDelay = gc.RetryMaxDelay
	policy.Jitter = gc.RetryJitter

	log.Info("gateway initialized",
		utils.Venue(inner.Name()),
		utils.Bool("testnet", gc.Testnet),
		utils.Int("read_attempts", policy.MaxAttempts),
	)

	return gateway.NewGuarded(inner, gateway.GuardedConfig{
		CallTimeout: gc.CallTimeout,
		ReadPolicy:  policy,
		Limiter:     limiter,
		Logger:      log,
	}), nil
}
