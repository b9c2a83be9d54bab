package models

import (
	"encoding/json"
	"time"
)

// FailedTask - запись журнала недоставленных операций (dead letter)
type FailedTask struct {
	ID        int             `json:"id" db:"id"`
	Operation string          `json:"operation" db:"operation"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	Reason    string          `json:"reason" db:"reason"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Операции журнала
const (
	OperationRecordTrade     = "record_trade"
	OperationCloseTrade      = "close_trade"
	OperationApplyFill       = "apply_fill"
	OperationProcessSignals  = "process_signals"
	OperationMonitorTrades   = "monitor_positions"
	OperationUpdatePnL       = "update_position_pnl"
	OperationCleanupPending  = "cleanup_pending"
	OperationPurgeDeadLetter = "purge_dead_letter"
	OperationPurgeJournal    = "purge_notifications"
)
