package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunTask(t *testing.T) {
	failed := &fakeFailedTasks{}
	s := NewScheduler(50*time.Millisecond, NewDeadLetter(failed, nil), nil)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		err := s.RunTask(ctx, Task{Name: "ok", Run: func(context.Context) error { return nil }})
		if err != nil {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("error is dead-lettered", func(t *testing.T) {
		err := s.RunTask(ctx, Task{Name: "broken", Run: func(context.Context) error { return errors.New("boom") }})
		if err == nil {
			t.Fatal("expected error")
		}
		if ops := failed.operations(); !containsString(ops, "broken") {
			t.Errorf("dead letter = %v", ops)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		err := s.RunTask(ctx, Task{Name: "slow", Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
	})

	t.Run("panic is recovered", func(t *testing.T) {
		err := s.RunTask(ctx, Task{Name: "panicky", Run: func(context.Context) error { panic("oops") }})
		if err == nil {
			t.Error("panic must surface as error")
		}
	})

	t.Run("parent cancel is not a failure", func(t *testing.T) {
		before := len(failed.operations())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_ = s.RunTask(cctx, Task{Name: "cancelled", Run: func(ctx context.Context) error { return ctx.Err() }})
		if len(failed.operations()) != before {
			t.Error("shutdown must not be dead-lettered")
		}
	})
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(time.Second, nil, nil)

	var runs int32
	s.Add(Task{Name: "tick", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}}).Add(Task{Name: "disabled", Interval: 0, Run: func(context.Context) error {
		t.Error("disabled task must not run")
		return nil
	}})

	if n := len(s.Tasks()); n != 2 {
		t.Fatalf("Tasks() = %d", n)
	}

	s.Start(context.Background())
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&runs) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	s.Stop() // повторная остановка безопасна

	if atomic.LoadInt32(&runs) < 3 {
		t.Errorf("runs = %d, want >= 3", runs)
	}

	after := atomic.LoadInt32(&runs)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&runs) != after {
		t.Error("task ran after Stop")
	}
}
