package paper

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"PredictionTradeBot/config"
	"PredictionTradeBot/internal/models"
)

// Gate rejection reasons. Rejections are normal outcomes, never errors.
const (
	ReasonOK                  = "ok"
	ReasonDisabled            = "disabled"
	ReasonResetPending        = "reset_pending"
	ReasonBalanceBelowMinimum = "balance_below_threshold"
	ReasonCooldown            = "cooldown"
	ReasonNoSignal            = "no_signal"
	ReasonEdgeBelowMin        = "edge_below_min"
	ReasonWeakSignal          = "strength_too_weak"
	ReasonLatePhase           = "late_phase"
	ReasonInvalidPrice        = "invalid_price"
	ReasonTooSmall            = "size_too_small"
	ReasonInsufficientFunds   = "insufficient_balance"
)

// StateStore persists the full engine state document.
type StateStore interface {
	Load() (*models.PaperState, error)
	Save(*models.PaperState) error
}

// EvalResult reports one snapshot evaluation.
type EvalResult struct {
	Reason   string
	Position *models.PaperPosition
}

// Engine is the persistent paper-trading simulation. It consumes one
// MarketSnapshot per cycle and maintains a virtual bankroll across process
// restarts.
type Engine struct {
	mu    sync.Mutex
	cfg   config.PaperConfig
	store StateStore
	log   *logrus.Logger
	state *models.PaperState
	now   func() time.Time
}

// NewEngine builds the engine, reloading persisted state when available. A
// missing or corrupt store never fails construction; it falls back to a
// fresh session.
func NewEngine(cfg config.PaperConfig, store StateStore, log *logrus.Logger) *Engine {
	e := &Engine{
		cfg:   cfg,
		store: store,
		log:   log,
		now:   time.Now,
	}

	state, err := store.Load()
	if err != nil {
		// Corrupt or unreadable store; keep running on a fresh state.
		e.log.WithError(err).Warn("paper: failed to load persisted state, starting fresh")
		state = nil
	}
	if state == nil {
		state = e.freshState()
	}
	e.state = state
	return e
}

func (e *Engine) freshState() *models.PaperState {
	return &models.PaperState{
		Enabled:          e.cfg.Enabled,
		Balance:          e.cfg.StartingBalance,
		StartingBalance:  e.cfg.StartingBalance,
		SessionStartedAt: e.now(),
	}
}

// Evaluate runs one snapshot through settlement, tracking, and the entry
// gate sequence. At most one position is opened per call.
func (e *Engine) Evaluate(snap *models.MarketSnapshot) EvalResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if snap != nil {
		e.settleOnSlugChange(snap)
		e.updateTracking(snap)
	}

	reason := e.canTradeLocked(snap)
	result := EvalResult{Reason: reason}
	if reason == ReasonOK {
		result.Position = e.openPositionLocked(snap)
		if result.Position == nil {
			result.Reason = ReasonInvalidPrice
		}
	}

	e.persist()
	return result
}

// CanTrade reports whether the engine would enter on this snapshot. It runs
// the same gate sequence as Evaluate, including the auto-reset trigger.
func (e *Engine) CanTrade(snap *models.MarketSnapshot) (bool, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reason := e.canTradeLocked(snap)
	e.persist()
	return reason == ReasonOK, reason
}

// canTradeLocked walks the gate sequence in order; the first failing gate
// wins.
func (e *Engine) canTradeLocked(snap *models.MarketSnapshot) string {
	if !e.state.Enabled {
		return ReasonDisabled
	}

	if e.state.Balance < e.cfg.AutoResetThreshold {
		if len(e.state.OpenPositions()) == 0 {
			e.resetLocked(e.cfg.StartingBalance)
			return ReasonResetPending
		}
		return ReasonBalanceBelowMinimum
	}

	if !e.state.LastTradeAt.IsZero() && e.now().Sub(e.state.LastTradeAt) < e.cfg.Cooldown {
		return ReasonCooldown
	}

	if snap == nil || snap.Decision.Action != models.ActionEnter {
		return ReasonNoSignal
	}

	if snap.Edge == nil {
		return ReasonNoSignal
	}
	_, best := snap.Edge.Best()
	if best < e.cfg.MinEdge {
		return ReasonEdgeBelowMin
	}

	if snap.Decision.Strength != models.StrengthGood && snap.Decision.Strength != models.StrengthStrong {
		return ReasonWeakSignal
	}

	if snap.Decision.Phase == models.PhaseLate {
		return ReasonLatePhase
	}

	price := sidePrice(snap, snap.Decision.Side)
	if price == nil || *price <= 0 || *price >= 1 {
		return ReasonInvalidPrice
	}

	shares, cost := e.sizePosition(e.state.Balance, best, *price)
	if shares < 1 || cost < 1 {
		return ReasonTooSmall
	}
	if cost > e.state.Balance {
		return ReasonInsufficientFunds
	}

	return ReasonOK
}

// sizePosition implements Kelly-style sizing: half the edge fraction of the
// bankroll, capped by the configured maximum fraction.
func (e *Engine) sizePosition(balance, edge, price float64) (int, float64) {
	fraction := math.Min(edge/2, e.cfg.MaxBalanceFraction)
	dollars := balance * fraction
	shares := int(math.Floor(dollars / price))
	cost := float64(shares) * price
	return shares, cost
}

func (e *Engine) openPositionLocked(snap *models.MarketSnapshot) *models.PaperPosition {
	side := snap.Decision.Side
	price := sidePrice(snap, side)
	if price == nil {
		return nil
	}
	_, best := snap.Edge.Best()
	shares, cost := e.sizePosition(e.state.Balance, best, *price)

	now := e.now()
	pos := models.PaperPosition{
		ID:         uuid.NewString(),
		MarketSlug: snap.Slug(),
		Side:       side,
		Shares:     shares,
		EntryPrice: *price,
		Cost:       cost,
		Status:     models.PaperPositionOpen,
		OpenedAt:   now,
	}

	e.state.Balance -= cost
	e.state.Trades = append(e.state.Trades, pos)
	e.state.SessionStats = applyEntry(e.state.SessionStats, cost)
	e.state.LastTradeAt = now

	e.log.WithFields(logrus.Fields{
		"slug":   pos.MarketSlug,
		"side":   pos.Side,
		"shares": pos.Shares,
		"price":  pos.EntryPrice,
		"cost":   pos.Cost,
	}).Info("paper: position opened")

	return &pos
}

// settleOnSlugChange settles every open position under the previously
// tracked slug when the active market moves on, using the last snapshot
// context recorded for that slug. When that context never resolved (no
// latched price-to-beat or no oracle reading), the outcome is unknowable:
// the positions stay OPEN under the abandoned slug, keep blocking
// auto-reset, and wait for an operator ForceSettle.
func (e *Engine) settleOnSlugChange(snap *models.MarketSnapshot) {
	slug := snap.Slug()
	if slug == "" || e.state.TrackedSlug == "" || slug == e.state.TrackedSlug {
		return
	}

	open := 0
	for _, p := range e.state.Trades {
		if p.Status == models.PaperPositionOpen && p.MarketSlug == e.state.TrackedSlug {
			open++
		}
	}
	if open == 0 {
		return
	}

	if e.state.PriceToBeat == nil || e.state.LastOraclePrice == nil {
		e.log.WithFields(logrus.Fields{
			"slug": e.state.TrackedSlug,
			"open": open,
		}).Warn("paper: outcome unresolved at slug change, positions held open for manual force-settle")
		return
	}

	outcome := models.SideDown
	if *e.state.LastOraclePrice > *e.state.PriceToBeat {
		outcome = models.SideUp
	}
	e.settleLocked(e.state.TrackedSlug, outcome, models.PaperPositionSettled)
}

func (e *Engine) settleLocked(slug, outcome, status string) {
	now := e.now()
	for i := range e.state.Trades {
		p := &e.state.Trades[i]
		if p.Status != models.PaperPositionOpen {
			continue
		}
		if slug != "" && p.MarketSlug != slug {
			continue
		}

		payout := 0.0
		if p.Side == outcome {
			payout = float64(p.Shares)
		}
		p.PnL = payout - p.Cost
		p.Status = status
		p.SettledAt = &now

		e.state.Balance += payout
		e.state.SessionStats = applySettlement(e.state.SessionStats, p.Side == outcome, p.PnL, payout)

		e.log.WithFields(logrus.Fields{
			"slug":    p.MarketSlug,
			"side":    p.Side,
			"outcome": outcome,
			"payout":  payout,
			"pnl":     p.PnL,
		}).Info("paper: position settled")
	}
}

// updateTracking mirrors the snapshot's market context into durable state so
// settlement survives restarts.
func (e *Engine) updateTracking(snap *models.MarketSnapshot) {
	slug := snap.Slug()
	if slug == "" {
		return
	}
	if slug != e.state.TrackedSlug {
		e.state.TrackedSlug = slug
		e.state.PriceToBeat = nil
		e.state.LastOraclePrice = nil
	}
	if snap.PriceToBeat != nil {
		v := *snap.PriceToBeat
		e.state.PriceToBeat = &v
	}
	if snap.OraclePrice != nil {
		v := snap.OraclePrice.Price
		e.state.LastOraclePrice = &v
	}
}

// ForceSettle settles all open positions at an explicit outcome.
func (e *Engine) ForceSettle(outcome string) error {
	if outcome != models.SideUp && outcome != models.SideDown {
		return fmt.Errorf("invalid outcome %q", outcome)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.settleLocked("", outcome, models.PaperPositionForceSettled)
	e.persist()
	return nil
}

// Reset closes the current session into history and starts a fresh one with
// the supplied starting balance (<=0 uses the configured default). It
// refuses while positions are still open; open cost would otherwise vanish
// unsettled. Settle or ForceSettle first.
func (e *Engine) Reset(startingBalance float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if open := len(e.state.OpenPositions()); open > 0 {
		return fmt.Errorf("%d open positions, settle before reset", open)
	}
	if startingBalance <= 0 {
		startingBalance = e.cfg.StartingBalance
	}
	e.resetLocked(startingBalance)
	e.persist()
	return nil
}

func (e *Engine) resetLocked(startingBalance float64) {
	now := e.now()
	if e.state.SessionStats.Trades >= 1 {
		record := models.SessionRecord{
			StartedAt:       e.state.SessionStartedAt,
			EndedAt:         now,
			StartingBalance: e.state.StartingBalance,
			EndingBalance:   e.state.Balance,
			Wiped:           e.state.Balance < e.cfg.AutoResetThreshold,
			Stats:           e.state.SessionStats,
		}
		e.state.SessionHistory = append(e.state.SessionHistory, record)
		e.state.Lifetime = foldStats(e.state.Lifetime, e.state.SessionStats)
		e.state.SessionsClosed++

		e.log.WithFields(logrus.Fields{
			"trades":  record.Stats.Trades,
			"pnl":     record.Stats.TotalPnL,
			"wiped":   record.Wiped,
			"balance": record.EndingBalance,
		}).Info("paper: session closed")
	}

	e.state.Balance = startingBalance
	e.state.StartingBalance = startingBalance
	e.state.SessionStartedAt = now
	e.state.Trades = nil
	e.state.SessionStats = models.PaperStats{}
	e.state.LastTradeAt = time.Time{}
}

// ResetAll wipes the entire simulation, including session history and
// lifetime stats. This is the only operation that decrements lifetime
// counters.
func (e *Engine) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = e.freshState()
	e.persist()
}

// Enable turns the engine on.
func (e *Engine) Enable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Enabled = true
	e.persist()
}

// Disable turns the engine off; open positions still settle.
func (e *Engine) Disable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Enabled = false
	e.persist()
}

// SetThresholds reconfigures the numeric gates at runtime. Invalid values
// reject the whole request.
func (e *Engine) SetThresholds(minEdge, maxFraction, autoResetThreshold float64, cooldown time.Duration) error {
	if minEdge < 0 || minEdge > 1 {
		return fmt.Errorf("min edge %v out of range", minEdge)
	}
	if maxFraction <= 0 || maxFraction > 1 {
		return fmt.Errorf("max balance fraction %v out of range", maxFraction)
	}
	if autoResetThreshold < 0 {
		return fmt.Errorf("auto-reset threshold %v out of range", autoResetThreshold)
	}
	if cooldown < 0 {
		return fmt.Errorf("cooldown %v out of range", cooldown)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MinEdge = minEdge
	e.cfg.MaxBalanceFraction = maxFraction
	e.cfg.AutoResetThreshold = autoResetThreshold
	e.cfg.Cooldown = cooldown
	return nil
}

// Status returns a copy of the current state for the serving layer.
func (e *Engine) Status() models.PaperState {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := *e.state
	out.Trades = append([]models.PaperPosition(nil), e.state.Trades...)
	out.SessionHistory = append([]models.SessionRecord(nil), e.state.SessionHistory...)
	return out
}

// persist writes the full state document. A failed write is logged and the
// in-memory state stands; it is not rolled back.
func (e *Engine) persist() {
	if err := e.store.Save(e.state); err != nil {
		e.log.WithError(err).Warn("paper: state persist failed, continuing in memory")
	}
}

func sidePrice(snap *models.MarketSnapshot, side string) *float64 {
	switch side {
	case models.SideUp:
		return snap.VenueUpPrice
	case models.SideDown:
		return snap.VenueDownPrice
	default:
		return nil
	}
}
