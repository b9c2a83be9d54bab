package bot

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"signalbot/internal/models"
	"signalbot/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DeadLetter - журнал операций, которые нельзя повторять автоматически
//
// Только добавление. Записи читает оператор (tradectl deadletter list),
// исполнитель к журналу не обращается.
type DeadLetter struct {
	store FailedTaskStore
	log   *utils.Logger
}

// NewDeadLetter создает журнал поверх хранилища
func NewDeadLetter(store FailedTaskStore, log *utils.Logger) *DeadLetter {
	if log == nil {
		log = utils.L()
	}
	return &DeadLetter{store: store, log: log.WithComponent("deadletter")}
}

// Record добавляет запись {operation, payload, reason}.
// Если запись в хранилище не удалась, полезная нагрузка остаётся в логе.
func (d *DeadLetter) Record(operation string, payload interface{}, cause error) {
	if d == nil {
		return
	}
	DeadLetters.WithLabelValues(operation).Inc()

	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("{}")
		d.log.Error("dead letter payload not serializable", utils.String("operation", operation), utils.Err(err))
	}

	if d.store == nil {
		return
	}

	task := &models.FailedTask{
		Operation: operation,
		Payload:   raw,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.store.Create(task); err != nil {
		d.log.Error("dead letter write failed",
			utils.String("operation", operation),
			utils.String("payload", string(raw)),
			utils.Reason(reason),
			utils.Err(err),
		)
	}
}

// Purge удаляет записи старше retention
func (d *DeadLetter) Purge(retention time.Duration) (int64, error) {
	if d == nil || d.store == nil {
		return 0, nil
	}
	removed, err := d.store.DeleteOlderThan(utils.Cutoff(time.Now().UTC(), retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		d.log.Info("dead letter purged", utils.Int64("removed", removed))
	}
	return removed, nil
}
