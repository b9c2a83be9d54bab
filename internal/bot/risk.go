package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/gateway"
	"signalbot/internal/models"
	"signalbot/pkg/utils"
)

// Причины отказа риск-гейта
const (
	ReasonZeroBalance    = "zero_balance"
	ReasonDrawdownLimit  = "drawdown_limit"
	ReasonPositionLimit  = "position_limit"
	ReasonError          = "error"
	ReasonInvalidRequest = "invalid_request"
)

// ErrInvalidLimits - недопустимые пороги риска
var ErrInvalidLimits = errors.New("invalid risk limits")

// RiskLimits - пороги риск-гейта
type RiskLimits struct {
	MaxDailyDrawdown decimal.Decimal `json:"max_daily_drawdown"` // доля баланса
	MaxOpenPositions int             `json:"max_open_positions"`
}

// Validate проверяет пороги
func (l RiskLimits) Validate() error {
	if l.MaxDailyDrawdown.Sign() <= 0 || l.MaxDailyDrawdown.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidLimits
	}
	if l.MaxOpenPositions < 1 {
		return ErrInvalidLimits
	}
	return nil
}

// OverrideState - состояние ручного одобрения
type OverrideState struct {
	Enabled     bool      `json:"enabled"`
	Reason      string    `json:"reason,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// DrawdownCheck - результат проверки дневной просадки
type DrawdownCheck struct {
	Allowed     bool            `json:"allowed"`
	DailyPnL    decimal.Decimal `json:"daily_pnl"`
	Balance     decimal.Decimal `json:"balance"`
	DrawdownPct decimal.Decimal `json:"drawdown_pct"`
	MaxDrawdown decimal.Decimal `json:"max_drawdown"`
	Reason      string          `json:"reason,omitempty"`
}

// PositionCheck - результат проверки числа открытых позиций
type PositionCheck struct {
	Allowed   bool   `json:"allowed"`
	OpenCount int    `json:"open_count"`
	MaxCount  int    `json:"max_count"`
	Reason    string `json:"reason,omitempty"`
}

// Validation - совокупный результат риск-гейта
type Validation struct {
	Allowed          bool           `json:"allowed"`
	Reasons          []string       `json:"reasons,omitempty"`
	RequiresApproval bool           `json:"requires_approval"`
	Drawdown         *DrawdownCheck `json:"drawdown,omitempty"`
	Positions        *PositionCheck `json:"positions,omitempty"`
}

// Transient - отказ вызван сбоем чтения, а не лимитом; сигнал можно повторить
func (v *Validation) Transient() bool {
	for _, r := range v.Reasons {
		if r == ReasonError || r == ReasonZeroBalance {
			return true
		}
	}
	return false
}

// RiskStatus - снимок для control plane
type RiskStatus struct {
	ManualOverride OverrideState `json:"manual_override"`
	Limits         RiskLimits    `json:"limits"`
	Drawdown       DrawdownCheck `json:"drawdown"`
	Positions      PositionCheck `json:"positions"`
	CheckedAt      time.Time     `json:"checked_at"`
}

// RiskGate - оценщик дневной просадки и лимита позиций с флагом ручного одобрения
//
// Без побочных эффектов: баланс читается с площадки, PnL и число позиций из БД,
// на каждый вызов заново. Пороги и флаг override читаются под RLock при каждой оценке,
// поэтому изменения из control plane видны сразу.
type RiskGate struct {
	gw         gateway.Gateway
	trades     TradeStore
	quoteAsset string

	mu       sync.RWMutex
	limits   RiskLimits
	override OverrideState

	now func() time.Time
	log *utils.Logger
}

// NewRiskGate создает риск-гейт
func NewRiskGate(gw gateway.Gateway, trades TradeStore, quoteAsset string, limits RiskLimits, manualOverride bool, log *utils.Logger) *RiskGate {
	if log == nil {
		log = utils.L()
	}
	g := &RiskGate{
		gw:         gw,
		trades:     trades,
		quoteAsset: quoteAsset,
		limits:     limits,
		override:   OverrideState{Enabled: manualOverride, Reason: "startup", LastUpdated: time.Now().UTC()},
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.WithComponent("risk"),
	}
	setManualOverrideGauge(manualOverride)
	return g
}

// ============================================================
// Проверки
// ============================================================

// CheckDrawdown проверяет дневную просадку.
//
// dailyPnL - сумма realized PnL сделок, закрытых с полуночи UTC.
// drawdown = max(0, -dailyPnL) / balance; разрешено при drawdown < max.
// Ошибки чтения не пробрасываются: allowed=false, reason=error.
func (g *RiskGate) CheckDrawdown(ctx context.Context) DrawdownCheck {
	limits := g.Limits()
	result := DrawdownCheck{MaxDrawdown: limits.MaxDailyDrawdown}

	balance, err := g.gw.GetBalance(ctx, g.quoteAsset)
	if err != nil {
		g.log.Warn("drawdown check: balance read failed", utils.Err(err))
		result.Reason = ReasonError
		return result
	}
	result.Balance = balance

	dailyPnL, err := g.trades.SumRealizedPnLSince(utils.GetDayStartFrom(g.now()))
	if err != nil {
		g.log.Warn("drawdown check: daily pnl read failed", utils.Err(err))
		result.Reason = ReasonError
		return result
	}
	result.DailyPnL = dailyPnL

	if balance.Sign() <= 0 {
		result.Reason = ReasonZeroBalance
		return result
	}

	result.DrawdownPct = utils.DrawdownFraction(dailyPnL, balance)
	if result.DrawdownPct.GreaterThanOrEqual(limits.MaxDailyDrawdown) {
		result.Reason = ReasonDrawdownLimit
		return result
	}

	result.Allowed = true
	return result
}

// CheckPositionCount проверяет лимит открытых позиций: разрешено при open < max
func (g *RiskGate) CheckPositionCount(ctx context.Context) PositionCheck {
	limits := g.Limits()
	result := PositionCheck{MaxCount: limits.MaxOpenPositions}

	count, err := g.trades.CountOpen()
	if err != nil {
		g.log.Warn("position check: count failed", utils.Err(err))
		result.Reason = ReasonError
		return result
	}
	result.OpenCount = count

	if count >= limits.MaxOpenPositions {
		result.Reason = ReasonPositionLimit
		return result
	}

	result.Allowed = true
	return result
}

// Validate - AND обеих проверок. При включенном override прошедшая проверку
// сделка требует ручного одобрения; лимиты override не отменяет.
// Некорректный запрос отклоняется до обращения к площадке.
func (g *RiskGate) Validate(ctx context.Context, symbol string, side models.Side, qty decimal.Decimal) *Validation {
	if err := validateRequest(symbol, side, qty); err != nil {
		g.log.Warn("risk validation: invalid request", utils.Symbol(symbol), utils.Err(err))
		RiskRejections.WithLabelValues(ReasonInvalidRequest).Inc()
		return &Validation{Reasons: []string{ReasonInvalidRequest}}
	}

	dd := g.CheckDrawdown(ctx)
	pc := g.CheckPositionCount(ctx)

	v := &Validation{
		Allowed:   dd.Allowed && pc.Allowed,
		Drawdown:  &dd,
		Positions: &pc,
	}
	if !dd.Allowed {
		v.Reasons = append(v.Reasons, dd.Reason)
	}
	if !pc.Allowed {
		v.Reasons = append(v.Reasons, pc.Reason)
	}

	if !v.Allowed {
		for _, r := range v.Reasons {
			RiskRejections.WithLabelValues(r).Inc()
		}
		g.log.Info("risk validation rejected",
			utils.Symbol(symbol),
			utils.Side(string(side)),
			utils.Quantity(qty),
			utils.Any("reasons", v.Reasons),
		)
		return v
	}

	v.RequiresApproval = g.Override().Enabled
	return v
}

// Status возвращает снимок состояния риска
func (g *RiskGate) Status(ctx context.Context) *RiskStatus {
	return &RiskStatus{
		ManualOverride: g.Override(),
		Limits:         g.Limits(),
		Drawdown:       g.CheckDrawdown(ctx),
		Positions:      g.CheckPositionCount(ctx),
		CheckedAt:      g.now(),
	}
}

// ============================================================
// Управление
// ============================================================

// Override возвращает текущее состояние ручного одобрения
func (g *RiskGate) Override() OverrideState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.override
}

// SetManualOverride включает или выключает ручное одобрение
func (g *RiskGate) SetManualOverride(enabled bool, reason string) OverrideState {
	g.mu.Lock()
	g.override = OverrideState{Enabled: enabled, Reason: reason, LastUpdated: g.now()}
	state := g.override
	g.mu.Unlock()

	setManualOverrideGauge(enabled)
	g.log.Info("manual override changed", utils.Bool("enabled", enabled), utils.Reason(reason))
	return state
}

// ToggleManualOverride инвертирует флаг
func (g *RiskGate) ToggleManualOverride(reason string) OverrideState {
	g.mu.Lock()
	g.override = OverrideState{Enabled: !g.override.Enabled, Reason: reason, LastUpdated: g.now()}
	state := g.override
	g.mu.Unlock()

	setManualOverrideGauge(state.Enabled)
	g.log.Info("manual override toggled", utils.Bool("enabled", state.Enabled), utils.Reason(reason))
	return state
}

// Limits возвращает текущие пороги
func (g *RiskGate) Limits() RiskLimits {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.limits
}

// UpdateLimits меняет пороги во время работы
func (g *RiskGate) UpdateLimits(limits RiskLimits) error {
	if err := limits.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	g.limits = limits
	g.mu.Unlock()

	g.log.Info("risk limits updated",
		utils.String("max_daily_drawdown", limits.MaxDailyDrawdown.String()),
		utils.Int("max_open_positions", limits.MaxOpenPositions),
	)
	return nil
}

// validateRequest - проверка запроса до любых обращений к площадке
func validateRequest(symbol string, side models.Side, qty decimal.Decimal) error {
	if err := validateTarget(symbol, side); err != nil {
		return err
	}
	return utils.ValidateQuantity(qty)
}

// validateTarget проверяет символ и направление
func validateTarget(symbol string, side models.Side) error {
	if err := utils.ValidateSymbol(symbol); err != nil {
		return err
	}
	if !side.Valid() {
		return utils.ErrInvalidSide
	}
	return nil
}
