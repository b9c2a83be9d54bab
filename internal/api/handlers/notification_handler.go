package handlers

import (
	"net/http"
	"strings"

	"signalbot/internal/models"
	"signalbot/internal/service"
)

// NotificationHandler - журнал уведомлений
//
// Endpoints:
// - GET /api/v1/notifications?limit=50&types=SL,TP
type NotificationHandler struct {
	notificationService service.NotificationServiceInterface
}

// NewNotificationHandler создает новый NotificationHandler
func NewNotificationHandler(notificationService service.NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications возвращает последние уведомления
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_limit", "limit must be a number", "")
		return
	}

	var types []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		types = strings.Split(raw, ",")
	}

	items, err := h.notificationService.ListNotifications(limit, types)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if items == nil {
		items = []*models.Notification{}
	}
	respondWithJSON(w, http.StatusOK, items)
}
