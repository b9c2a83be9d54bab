package websocket

import (
	"time"

	"signalbot/internal/models"
)

// MessageType - тип сообщения для клиента
type MessageType string

const (
	// MessageTypeNotification - событие для оператора (сделка, SL/TP, сверка)
	MessageTypeNotification MessageType = "notification"

	// MessageTypePositions - снимок леджера после пересчёта PnL
	MessageTypePositions MessageType = "positions"

	// MessageTypeHello - первое сообщение после подключения
	MessageTypeHello MessageType = "hello"
)

// BaseMessage - общие поля всех сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// ============ Типизированные сообщения (без map[string]interface{}) ============

// NotificationMessage - сообщение с уведомлением
type NotificationMessage struct {
	BaseMessage
	Data *models.Notification `json:"data"`
}

// PositionsMessage - сообщение со снимком позиций
type PositionsMessage struct {
	BaseMessage
	Data []*PositionData `json:"data"`
}

// PositionData - позиция в формате для панели
type PositionData struct {
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Size          string    `json:"size"`
	EntryPrice    string    `json:"entry_price"`
	UnrealizedPnL string    `json:"unrealized_pnl"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HelloMessage отправляется клиенту сразу после регистрации
type HelloMessage struct {
	BaseMessage
	Clients int `json:"clients"`
}

// NewNotificationMessage оборачивает уведомление
func NewNotificationMessage(notif *models.Notification) *NotificationMessage {
	ts := notif.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &NotificationMessage{
		BaseMessage: BaseMessage{Type: MessageTypeNotification, Timestamp: ts},
		Data:        notif,
	}
}

// NewPositionsMessage конвертирует снимок леджера.
// Decimal передаются строками: панель не теряет точность на float64.
func NewPositionsMessage(positions []*models.Position) *PositionsMessage {
	data := make([]*PositionData, 0, len(positions))
	for _, p := range positions {
		data = append(data, &PositionData{
			Symbol:        p.Symbol,
			Side:          string(p.Side()),
			Size:          p.Size.String(),
			EntryPrice:    p.EntryPrice.String(),
			UnrealizedPnL: p.UnrealizedPnL.String(),
			UpdatedAt:     p.UpdatedAt,
		})
	}
	return &PositionsMessage{
		BaseMessage: BaseMessage{Type: MessageTypePositions, Timestamp: time.Now().UTC()},
		Data:        data,
	}
}
