package repository

import (
	"database/sql"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"signalbot/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NotificationRepository - журнал уведомлений оператора
//
// Функции:
// - Create: записать уведомление
// - GetRecent: последние N уведомлений, опционально по типам
// - DeleteOlderThan: автоочистка старых записей
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository создает новый экземпляр NotificationRepository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, timestamp, type, severity, symbol, trade_id, message, meta`

// Create записывает уведомление и заполняет notif.ID
func (r *NotificationRepository) Create(notif *models.Notification) error {
	var meta []byte
	if len(notif.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(notif.Meta); err != nil {
			return err
		}
	}
	if notif.Timestamp.IsZero() {
		notif.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO notifications (timestamp, type, severity, symbol, trade_id, message, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	return r.db.QueryRow(query,
		notif.Timestamp, notif.Type, notif.Severity, notif.Symbol, notif.TradeID, notif.Message, meta,
	).Scan(&notif.ID)
}

// GetRecent возвращает последние N уведомлений; пустой types = все типы
func (r *NotificationRepository) GetRecent(limit int, types []string) ([]*models.Notification, error) {
	if len(types) == 0 {
		query := `SELECT ` + notificationColumns + ` FROM notifications ORDER BY timestamp DESC LIMIT $1`
		return r.query(query, limit)
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE type = ANY($1) ORDER BY timestamp DESC LIMIT $2`
	return r.query(query, pq.Array(types), limit)
}

// DeleteOlderThan удаляет записи старше before. Возвращает количество удалённых.
func (r *NotificationRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM notifications WHERE timestamp < $1`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *NotificationRepository) query(query string, args ...interface{}) ([]*models.Notification, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var (
			tradeID sql.NullInt64
			meta    []byte
		)
		if err := rows.Scan(&n.ID, &n.Timestamp, &n.Type, &n.Severity, &n.Symbol, &tradeID, &n.Message, &meta); err != nil {
			return nil, err
		}
		if tradeID.Valid {
			id := int(tradeID.Int64)
			n.TradeID = &id
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &n.Meta); err != nil {
				return nil, err
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
