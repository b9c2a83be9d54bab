package repository

import (
	"database/sql"
	"time"

	"signalbot/internal/models"
)

// FailedTaskRepository - журнал недоставленных операций (dead letter)
type FailedTaskRepository struct {
	db *sql.DB
}

// NewFailedTaskRepository создает новый экземпляр репозитория
func NewFailedTaskRepository(db *sql.DB) *FailedTaskRepository {
	return &FailedTaskRepository{db: db}
}

// Create добавляет запись в журнал
func (r *FailedTaskRepository) Create(task *models.FailedTask) error {
	query := `
		INSERT INTO failed_tasks (operation, payload, reason, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	payload := []byte(task.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	return r.db.QueryRow(query, task.Operation, payload, task.Reason, task.CreatedAt).Scan(&task.ID)
}

// GetRecent возвращает последние N записей
func (r *FailedTaskRepository) GetRecent(limit int) ([]*models.FailedTask, error) {
	query := `
		SELECT id, operation, payload, reason, created_at
		FROM failed_tasks
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.FailedTask
	for rows.Next() {
		task := &models.FailedTask{}
		var payload []byte
		if err := rows.Scan(&task.ID, &task.Operation, &payload, &task.Reason, &task.CreatedAt); err != nil {
			return nil, err
		}
		task.Payload = payload
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// DeleteOlderThan удаляет записи, созданные раньше before. Возвращает количество удалённых.
func (r *FailedTaskRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM failed_tasks WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
