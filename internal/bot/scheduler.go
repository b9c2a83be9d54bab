package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"signalbot/pkg/utils"
)

// Task - периодическая задача
type Task struct {
	Name     string // имя, оно же operation в журнале
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler запускает независимые периодические задачи
//
// Каждая задача крутится в своей горутине и не пересекается сама с собой.
// Запуск ограничен таймаутом; ошибка пишется в лог, метрику и журнал.
// Прерванный запуск ничего не портит: следующий тик подберёт необработанное.
type Scheduler struct {
	tasks      []Task
	timeout    time.Duration
	deadLetter *DeadLetter
	log        *utils.Logger

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler создает планировщик; timeout ограничивает один запуск задачи
func NewScheduler(timeout time.Duration, deadLetter *DeadLetter, log *utils.Logger) *Scheduler {
	if log == nil {
		log = utils.L()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		timeout:    timeout,
		deadLetter: deadLetter,
		log:        log.WithComponent("scheduler"),
		stopCh:     make(chan struct{}),
	}
}

// Add регистрирует задачу; вызывать до Start
func (s *Scheduler) Add(task Task) *Scheduler {
	s.tasks = append(s.tasks, task)
	return s
}

// Tasks возвращает зарегистрированные задачи
func (s *Scheduler) Tasks() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Start запускает задачи. Остановка через ctx или Stop.
func (s *Scheduler) Start(ctx context.Context) {
	for _, task := range s.tasks {
		if task.Interval <= 0 || task.Run == nil {
			s.log.Warn("task disabled", utils.String("task", task.Name))
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
	s.log.Info("scheduler started", utils.Int("tasks", len(s.tasks)))
}

// Stop останавливает задачи и ждёт завершения текущих запусков
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunTask(ctx, task)
		}
	}
}

// RunTask выполняет один запуск задачи с таймаутом, метриками и журналом
func (s *Scheduler) RunTask(ctx context.Context, task Task) error {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.safeRun(runCtx, task)
	TaskDuration.WithLabelValues(task.Name).Observe(float64(time.Since(start).Milliseconds()))

	switch {
	case err == nil:
		TaskRuns.WithLabelValues(task.Name, "ok").Inc()
	case ctx.Err() != nil:
		// остановка процесса, не сбой задачи
		TaskRuns.WithLabelValues(task.Name, "cancelled").Inc()
	default:
		TaskRuns.WithLabelValues(task.Name, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.Warn("task timed out", utils.String("task", task.Name), utils.Latency(time.Since(start)))
		} else {
			s.log.Error("task failed", utils.String("task", task.Name), utils.Err(err))
		}
		s.deadLetter.Record(task.Name, map[string]interface{}{
			"task":       task.Name,
			"started_at": start.UTC(),
		}, err)
	}
	return err
}

// safeRun превращает панику задачи в ошибку, чтобы цикл продолжал работать
func (s *Scheduler) safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("task panicked", utils.String("task", task.Name), utils.Any("panic", r))
			err = errors.New("task panicked")
		}
	}()
	return task.Run(ctx)
}
