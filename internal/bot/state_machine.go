package bot

import (
	"errors"
	"fmt"
)

// Состояния сигнала в конвейере исполнения
const (
	StateReceived        = "received"
	StateValidated       = "validated"
	StateRejected        = "rejected"
	StatePendingApproval = "pending_approval"
	StateOrderPlaced     = "order_placed"
	StateOpen            = "open"
	StateClosed          = "closed"
	StateFailed          = "failed"    // сбой шлюза или чтения, сигнал вернётся на следующем тике
	StateReconcile       = "reconcile" // ордер исполнен, локальная запись не удалась
)

// ErrInvalidTransition - недопустимый переход состояния
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions определяет допустимые переходы между состояниями
var ValidTransitions = map[string][]string{
	StateReceived:        {StateValidated, StateRejected, StateFailed},
	StateValidated:       {StateRejected, StatePendingApproval, StateOrderPlaced, StateFailed},
	StatePendingApproval: {StateOrderPlaced, StateRejected, StateFailed}, // одобрение возобновляет с размещения ордера
	StateOrderPlaced:     {StateOpen, StateFailed, StateReconcile},
	StateOpen:            {StateClosed, StateReconcile},
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// signalFlow отслеживает состояние одного сигнала в рамках вызова исполнителя
type signalFlow struct {
	signalID int
	state    string
}

func newSignalFlow(signalID int, initial string) *signalFlow {
	return &signalFlow{signalID: signalID, state: initial}
}

// advance выполняет переход и пишет метрику
func (f *signalFlow) advance(to string) error {
	if !CanTransition(f.state, to) {
		return fmt.Errorf("%w: signal %d %s -> %s", ErrInvalidTransition, f.signalID, f.state, to)
	}
	RecordTransition(f.state, to)
	f.state = to
	return nil
}
