package models

import "time"

// Notification - событие для оператора (websocket и логи)
type Notification struct {
	ID        int                    `json:"id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Severity  string                 `json:"severity"` // info, warn, error
	Symbol    string                 `json:"symbol,omitempty"`
	TradeID   *int                   `json:"trade_id,omitempty"`
	Message   string                 `json:"message"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// Типы уведомлений
const (
	NotificationTypeOpen           = "OPEN"            // сделка открыта
	NotificationTypeClose          = "CLOSE"           // сделка закрыта
	NotificationTypeSL             = "SL"              // сработал стоп-лосс
	NotificationTypeTP             = "TP"              // сработал тейк-профит
	NotificationTypePending        = "PENDING"         // сделка ждёт одобрения
	NotificationTypeRiskRejected   = "RISK_REJECTED"   // сигнал отклонён риск-гейтом
	NotificationTypeReconciliation = "RECONCILIATION" // ордер исполнен, запись в БД не удалась
	NotificationTypeError          = "ERROR"           // ошибка шлюза/задачи
	NotificationTypeOverride       = "OVERRIDE"        // переключён ручной режим
)

// Уровни важности
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)
