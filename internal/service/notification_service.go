package service

import (
	"errors"
	"fmt"
	"strings"

	"signalbot/internal/models"
)

// ErrInvalidNotificationType - неизвестный тип в фильтре
var ErrInvalidNotificationType = errors.New("unknown notification type")

var notificationTypes = map[string]bool{
	models.NotificationTypeOpen:           true,
	models.NotificationTypeClose:          true,
	models.NotificationTypeSL:             true,
	models.NotificationTypeTP:             true,
	models.NotificationTypePending:        true,
	models.NotificationTypeRiskRejected:   true,
	models.NotificationTypeReconciliation: true,
	models.NotificationTypeError:          true,
	models.NotificationTypeOverride:       true,
}

// NotificationService - чтение журнала уведомлений
type NotificationService struct {
	repo NotificationRepositoryInterface
}

// NewNotificationService создает сервис
func NewNotificationService(repo NotificationRepositoryInterface) *NotificationService {
	return &NotificationService{repo: repo}
}

// ListNotifications возвращает последние уведомления; types приводятся к верхнему регистру
func (s *NotificationService) ListNotifications(limit int, types []string) ([]*models.Notification, error) {
	var filter []string
	for _, t := range types {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !notificationTypes[t] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidNotificationType, t)
		}
		filter = append(filter, t)
	}
	return s.repo.GetRecent(clampLimit(limit), filter)
}
