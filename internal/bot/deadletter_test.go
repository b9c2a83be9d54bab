package bot

import (
	"errors"
	"strings"
	"testing"
	"time"

	"signalbot/internal/models"
)

func TestDeadLetterRecord(t *testing.T) {
	store := &fakeFailedTasks{}
	dl := NewDeadLetter(store, nil)

	dl.Record(models.OperationRecordTrade, map[string]interface{}{"signal_id": 7, "order_id": "paper-1"}, errors.New("db down"))

	if len(store.tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(store.tasks))
	}
	task := store.tasks[0]
	if task.Operation != models.OperationRecordTrade || task.Reason != "db down" {
		t.Errorf("task = %+v", task)
	}
	if !strings.Contains(string(task.Payload), `"order_id":"paper-1"`) {
		t.Errorf("payload = %s", task.Payload)
	}
}

func TestDeadLetterRecord_Degraded(t *testing.T) {
	// без хранилища и при сбое записи Record не паникует
	var nilDL *DeadLetter
	nilDL.Record("x", nil, nil)

	NewDeadLetter(nil, nil).Record("x", map[string]int{"a": 1}, errors.New("e"))

	store := &fakeFailedTasks{createErr: errors.New("db down")}
	NewDeadLetter(store, nil).Record("x", func() {}, nil)
	if len(store.tasks) != 0 {
		t.Error("failed write must not be stored")
	}
}

func TestDeadLetterPurge(t *testing.T) {
	store := &fakeFailedTasks{}
	now := time.Now().UTC()
	store.tasks = []*models.FailedTask{
		{ID: 1, Operation: "a", CreatedAt: now.Add(-40 * 24 * time.Hour)},
		{ID: 2, Operation: "b", CreatedAt: now.Add(-time.Hour)},
	}

	removed, err := NewDeadLetter(store, nil).Purge(30 * 24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 || len(store.tasks) != 1 || store.tasks[0].ID != 2 {
		t.Errorf("removed = %d, left = %+v", removed, store.tasks)
	}
}
