package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signalbot/internal/api/handlers"
	"signalbot/internal/api/middleware"
	"signalbot/internal/service"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	RiskService     service.RiskServiceInterface
	PendingService  service.PendingServiceInterface
	TradeService    service.TradeServiceInterface
	SettingsService service.SettingsServiceInterface

	NotificationService service.NotificationServiceInterface
	StatsService        service.StatsServiceInterface

	// WebSocket handler (hub.ServeWS); nil - маршрут не регистрируется
	Stream http.HandlerFunc

	// HealthCheck возвращает ошибку, если зависимость (БД) недоступна
	HealthCheck func() error

	// TokenHash - bcrypt-хеш bearer-токена; пусто = без авторизации
	TokenHash      string
	AllowedOrigins []string
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/ (bearer-токен)
//
//	├── /risk
//	│   ├── GET /            - состояние риск-гейта
//	│   └── POST /override   - ручное одобрение вкл/выкл/toggle
//	├── /pending
//	│   ├── GET /                 - очередь одобрения
//	│   ├── DELETE /?max_age_hours - очистка устаревших
//	│   ├── POST /{id}/approve    - одобрить и исполнить
//	│   └── POST /{id}/reject     - отклонить
//	├── /trades
//	│   ├── GET /             - последние сделки (?status, ?limit)
//	│   ├── GET /stats        - сводная статистика
//	│   ├── GET /{id}         - сделка
//	│   └── POST /{id}/close  - ручное закрытие
//	├── GET /positions        - снимок леджера
//	├── GET /deadletters      - журнал сверки
//	├── GET /notifications    - журнал уведомлений (?types=SL,TP)
//	└── /settings
//	    ├── GET /   - торговые настройки
//	    └── PATCH / - обновить настройки
//
// /ws/stream - WebSocket (уведомления и позиции), тот же токен
// /health, /metrics - без авторизации
//
// Middleware применяется в следующем порядке:
// 1. Recovery
// 2. RequestID
// 3. Logging
// 4. CORS
// 5. Auth (только /api/v1 и /ws)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS(deps.AllowedOrigins))

	auth := middleware.NewAuth(deps.TokenHash)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Middleware)

	if deps.RiskService != nil {
		h := handlers.NewRiskHandler(deps.RiskService)
		api.HandleFunc("/risk", h.GetRiskStatus).Methods("GET")
		api.HandleFunc("/risk/override", h.SetOverride).Methods("POST")
	}

	if deps.PendingService != nil {
		h := handlers.NewPendingHandler(deps.PendingService)
		api.HandleFunc("/pending", h.ListPending).Methods("GET")
		api.HandleFunc("/pending", h.Cleanup).Methods("DELETE")
		api.HandleFunc("/pending/{id}/approve", h.Approve).Methods("POST")
		api.HandleFunc("/pending/{id}/reject", h.Reject).Methods("POST")
	}

	if deps.TradeService != nil {
		h := handlers.NewTradeHandler(deps.TradeService)
		api.HandleFunc("/trades", h.ListTrades).Methods("GET")
		api.HandleFunc("/trades/{id:[0-9]+}", h.GetTrade).Methods("GET")
		api.HandleFunc("/trades/{id:[0-9]+}/close", h.CloseTrade).Methods("POST")
		api.HandleFunc("/positions", h.ListPositions).Methods("GET")
		api.HandleFunc("/deadletters", h.ListDeadLetters).Methods("GET")
	}

	if deps.StatsService != nil {
		h := handlers.NewStatsHandler(deps.StatsService)
		api.HandleFunc("/trades/stats", h.GetTradeStats).Methods("GET")
	}

	if deps.SettingsService != nil {
		h := handlers.NewSettingsHandler(deps.SettingsService)
		api.HandleFunc("/settings", h.GetSettings).Methods("GET")
		api.HandleFunc("/settings", h.UpdateSettings).Methods("PATCH")
	}

	if deps.NotificationService != nil {
		h := handlers.NewNotificationHandler(deps.NotificationService)
		api.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	}

	if deps.Stream != nil {
		router.Handle("/ws/stream", auth.Middleware(deps.Stream)).Methods("GET")
	}

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(); err != nil {
				http.Error(w, "UNAVAILABLE: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
