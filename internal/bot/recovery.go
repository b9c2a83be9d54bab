package bot

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"signalbot/internal/models"
	"signalbot/pkg/utils"
)

// OperationLedgerMismatch - операция журнала для расхождения леджера и сделок
const OperationLedgerMismatch = "ledger_mismatch"

// LedgerMismatch - расхождение по символу между леджером и открытыми сделками
type LedgerMismatch struct {
	Symbol     string          `json:"symbol"`
	LedgerSize decimal.Decimal `json:"ledger_size"`
	TradesSize decimal.Decimal `json:"trades_size"` // сумма объёмов OPEN сделок со знаком
}

// RecoveryManager проверяет согласованность состояния после перезапуска.
//
// Функциональность:
// - Сравнение позиций леджера с открытыми сделками по каждому символу
// - Уведомление оператора о найденных расхождениях
// - Запись расхождений в журнал для ручной сверки
//
// Автоматически ничего не исправляет: причина расхождения (ручная сделка на
// площадке, сбой записи) известна только оператору.
type RecoveryManager struct {
	trades     TradeStore
	ledger     *PositionLedger
	deadLetter *DeadLetter

	notificationChan chan<- *models.Notification
	log              *utils.Logger
}

// NewRecoveryManager создает менеджер восстановления
func NewRecoveryManager(trades TradeStore, ledger *PositionLedger, deadLetter *DeadLetter, notifyCh chan<- *models.Notification, log *utils.Logger) *RecoveryManager {
	if log == nil {
		log = utils.L()
	}
	return &RecoveryManager{
		trades:           trades,
		ledger:           ledger,
		deadLetter:       deadLetter,
		notificationChan: notifyCh,
		log:              log.WithComponent("recovery"),
	}
}

// Verify сравнивает леджер с открытыми сделками. Вызывается после ledger.Load().
func (rm *RecoveryManager) Verify() ([]LedgerMismatch, error) {
	open, err := rm.trades.GetOpen()
	if err != nil {
		return nil, fmt.Errorf("load open trades: %w", err)
	}

	expected := make(map[string]decimal.Decimal)
	for _, t := range open {
		expected[t.Symbol] = expected[t.Symbol].Add(t.Side.Signed(t.Quantity))
	}

	actual := make(map[string]decimal.Decimal)
	for _, p := range rm.ledger.SnapshotAll() {
		actual[p.Symbol] = p.Size
	}

	symbols := make(map[string]struct{}, len(expected)+len(actual))
	for s := range expected {
		symbols[s] = struct{}{}
	}
	for s := range actual {
		symbols[s] = struct{}{}
	}

	var mismatches []LedgerMismatch
	for s := range symbols {
		if !expected[s].Equal(actual[s]) {
			mismatches = append(mismatches, LedgerMismatch{Symbol: s, LedgerSize: actual[s], TradesSize: expected[s]})
		}
	}
	sort.Slice(mismatches, func(i, j int) bool { return mismatches[i].Symbol < mismatches[j].Symbol })

	for _, m := range mismatches {
		rm.report(m)
	}

	rm.log.Info("startup consistency check done",
		utils.Int("open_trades", len(open)),
		utils.Int("positions", len(actual)),
		utils.Int("mismatches", len(mismatches)),
	)
	return mismatches, nil
}

func (rm *RecoveryManager) report(m LedgerMismatch) {
	rm.log.Error("ledger does not match open trades",
		utils.Symbol(m.Symbol),
		utils.String("ledger_size", m.LedgerSize.String()),
		utils.String("trades_size", m.TradesSize.String()),
	)
	ReconciliationGaps.WithLabelValues(OperationLedgerMismatch).Inc()
	rm.deadLetter.Record(OperationLedgerMismatch, m, fmt.Errorf("ledger size %s, open trades %s", m.LedgerSize, m.TradesSize))
	tryEnqueueNotification(rm.notificationChan, newNotification(models.NotificationTypeReconciliation, models.SeverityError, m.Symbol, 0,
		fmt.Sprintf("Ledger %s size %s does not match open trades %s", m.Symbol, m.LedgerSize, m.TradesSize),
		map[string]interface{}{"ledger_size": m.LedgerSize.String(), "trades_size": m.TradesSize.String()}))
}
