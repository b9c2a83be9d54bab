package bot

import (
	"time"

	"signalbot/internal/models"
)

// tryEnqueueNotification отправляет уведомление в канал с метрикой переполнения.
// Возвращает true, если уведомление поставлено в очередь.
func tryEnqueueNotification(ch chan<- *models.Notification, notif *models.Notification) bool {
	if ch == nil || notif == nil {
		return false
	}

	select {
	case ch <- notif:
		return true
	default:
		RecordBufferOverflow("notification")
		return false
	}
}

// newNotification собирает уведомление; tradeID = 0 означает "без сделки"
func newNotification(typ, severity, symbol string, tradeID int, message string, meta map[string]interface{}) *models.Notification {
	notif := &models.Notification{
		Timestamp: time.Now().UTC(),
		Type:      typ,
		Severity:  severity,
		Symbol:    symbol,
		Message:   message,
		Meta:      meta,
	}
	if tradeID > 0 {
		id := tradeID
		notif.TradeID = &id
	}
	return notif
}
