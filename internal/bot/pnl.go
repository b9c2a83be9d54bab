package bot

import (
	"context"
	"errors"

	"signalbot/internal/gateway"
	"signalbot/pkg/utils"
)

// PnLUpdater - периодический пересчёт нереализованного PnL позиций леджера
type PnLUpdater struct {
	gw     gateway.Gateway
	ledger *PositionLedger
	log    *utils.Logger
}

// NewPnLUpdater создает задачу пересчёта
func NewPnLUpdater(gw gateway.Gateway, ledger *PositionLedger, log *utils.Logger) *PnLUpdater {
	if log == nil {
		log = utils.L()
	}
	return &PnLUpdater{gw: gw, ledger: ledger, log: log.WithComponent("pnl")}
}

// Refresh обновляет PnL всех позиций; возвращает число обновлённых.
// Сбой цены по символу не прерывает проход.
func (u *PnLUpdater) Refresh(ctx context.Context) (int, error) {
	updated := 0
	var lastErr error

	for _, p := range u.ledger.SnapshotAll() {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}

		price, err := u.gw.GetPrice(ctx, p.Symbol)
		if err != nil {
			u.log.Warn("price unavailable for pnl refresh", utils.Symbol(p.Symbol), utils.Err(err))
			continue
		}

		pnl, err := u.ledger.RefreshUnrealizedPnL(p.Symbol, price)
		if err != nil {
			// позиция могла закрыться между снимком и пересчётом
			if !errors.Is(err, ErrPositionNotFound) {
				lastErr = err
				u.log.Error("pnl refresh failed", utils.Symbol(p.Symbol), utils.Err(err))
			}
			continue
		}
		u.log.Debug("unrealized pnl", utils.Symbol(p.Symbol), utils.Price(price), utils.PNL(pnl))
		updated++
	}

	return updated, lastErr
}

// Run - задача планировщика
func (u *PnLUpdater) Run(ctx context.Context) error {
	_, err := u.Refresh(ctx)
	return err
}
