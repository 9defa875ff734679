package paper

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PredictionTradeBot/config"
	"PredictionTradeBot/internal/models"
)

// memStore round-trips state through JSON, matching the durable store's
// encoding.
type memStore struct {
	doc      []byte
	saves    int
	failSave bool
}

func (m *memStore) Load() (*models.PaperState, error) {
	if m.doc == nil {
		return nil, nil
	}
	var state models.PaperState
	if err := json.Unmarshal(m.doc, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *memStore) Save(state *models.PaperState) error {
	if m.failSave {
		return errors.New("store unavailable")
	}
	doc, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.doc = doc
	m.saves++
	return nil
}

func testPaperConfig() config.PaperConfig {
	return config.PaperConfig{
		Enabled:            true,
		StartingBalance:    1000,
		MinEdge:            0.10,
		MaxBalanceFraction: 0.05,
		Cooldown:           time.Minute,
		AutoResetThreshold: 10,
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestEngine(t *testing.T) (*Engine, *memStore, *time.Time) {
	t.Helper()
	store := &memStore{}
	engine := NewEngine(testPaperConfig(), store, testLogger())
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return clock }
	return engine, store, &clock
}

func entrySnapshot(slug string, price, edgeUp, priceToBeat, oracle float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Market: &models.MarketDescriptor{
			Slug:           slug,
			UpTokenID:      "up-token",
			DownTokenID:    "down-token",
			SettlementTime: time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC),
		},
		PriceToBeat:    models.Float64(priceToBeat),
		OraclePrice:    &models.OraclePrice{Price: oracle, Source: "test"},
		VenueUpPrice:   models.Float64(price),
		VenueDownPrice: models.Float64(1 - price),
		Probability:    &models.ProbabilityEstimate{RawUp: 0.7, AdjustedUp: 0.65, AdjustedDown: 0.35},
		Edge:           &models.EdgeResult{EdgeUp: edgeUp, EdgeDown: -edgeUp},
		Decision: models.TradeDecision{
			Action:   models.ActionEnter,
			Side:     models.SideUp,
			Strength: models.StrengthStrong,
			Phase:    models.PhaseMid,
		},
	}
}

func holdSnapshot(slug string, priceToBeat, oracle float64) *models.MarketSnapshot {
	snap := entrySnapshot(slug, 0.5, 0, priceToBeat, oracle)
	snap.Edge = &models.EdgeResult{}
	snap.Decision = models.TradeDecision{Action: models.ActionHold, Phase: models.PhaseMid}
	return snap
}

func TestEvaluateKellySizing(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	// balance=1000, edge=0.25, price=0.40:
	// dollars = 1000 * min(0.25/2, 0.05) = 50; shares = floor(50/0.40) = 125.
	result := engine.Evaluate(entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050))
	require.Equal(t, ReasonOK, result.Reason)
	require.NotNil(t, result.Position)

	assert.Equal(t, 125, result.Position.Shares)
	assert.InDelta(t, 50.00, result.Position.Cost, 1e-9)
	assert.InDelta(t, 0.40, result.Position.EntryPrice, 1e-9)
	assert.Equal(t, models.PaperPositionOpen, result.Position.Status)
	assert.NotEmpty(t, result.Position.ID)

	status := engine.Status()
	assert.InDelta(t, 950.00, status.Balance, 1e-9)
	assert.Equal(t, 1, status.SessionStats.Trades)
	assert.InDelta(t, 50.00, status.SessionStats.TotalWagered, 1e-9)
}

func TestEvaluateBalanceConservation(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	before := engine.Status().Balance
	result := engine.Evaluate(entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050))
	require.NotNil(t, result.Position)

	status := engine.Status()
	assert.InDelta(t, before, status.Balance+status.OpenCost(), 1e-9,
		"buy conserves balance + open cost")

	// Settlement on slug change pays out the winner; conservation holds in
	// PnL terms.
	*clock = clock.Add(2 * time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1200", 60000, 60123))
	engine.Evaluate(holdSnapshot("btc-15m-1215", 61000, 61000))

	status = engine.Status()
	assert.InDelta(t, 950.00+125.00, status.Balance, 1e-9)
	assert.Empty(t, status.OpenPositions())
}

func TestSettlementOnSlugChange(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	// Open an UP position under the first market.
	result := engine.Evaluate(entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050))
	require.NotNil(t, result.Position)

	// Last snapshot under the old slug carries the final oracle reading.
	*clock = clock.Add(time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1200", 60000, 60123))

	// Slug changes; the old position settles against 60123 > 60000 = UP.
	*clock = clock.Add(time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1215", 61000, 61000))

	status := engine.Status()
	require.Len(t, status.Trades, 1)
	settled := status.Trades[0]
	assert.Equal(t, models.PaperPositionSettled, settled.Status)
	assert.InDelta(t, 75.00, settled.PnL, 1e-9, "125 shares pay $125 against $50 cost")
	require.NotNil(t, settled.SettledAt)

	assert.Equal(t, 1, status.SessionStats.Wins)
	assert.Equal(t, 0, status.SessionStats.Losses)
	assert.Equal(t, 1, status.SessionStats.CurrentStreak)
	assert.InDelta(t, 75.00, status.SessionStats.TotalPnL, 1e-9)
}

func TestSettlementLosingSide(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	snap := entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050)
	snap.Edge = &models.EdgeResult{EdgeUp: -0.25, EdgeDown: 0.25}
	snap.Decision.Side = models.SideDown
	snap.VenueDownPrice = models.Float64(0.40)
	result := engine.Evaluate(snap)
	require.NotNil(t, result.Position)
	require.Equal(t, models.SideDown, result.Position.Side)

	*clock = clock.Add(time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1200", 60000, 60123))
	*clock = clock.Add(time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1215", 61000, 61000))

	status := engine.Status()
	require.Len(t, status.Trades, 1)
	assert.InDelta(t, -50.00, status.Trades[0].PnL, 1e-9, "losing side pays $0")
	assert.Equal(t, 1, status.SessionStats.Losses)
	assert.Equal(t, -1, status.SessionStats.CurrentStreak)
	assert.Equal(t, -1, status.SessionStats.WorstStreak)
}

func TestSettlementDeferredWhenUnresolved(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	snap := entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050)
	snap.PriceToBeat = nil
	result := engine.Evaluate(snap)
	require.NotNil(t, result.Position)

	*clock = clock.Add(time.Minute)
	next := holdSnapshot("btc-15m-1215", 61000, 61000)
	engine.Evaluate(next)

	status := engine.Status()
	require.Len(t, status.Trades, 1)
	assert.Equal(t, models.PaperPositionOpen, status.Trades[0].Status,
		"missing price-to-beat defers settlement")
}

func TestForceSettle(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	result := engine.Evaluate(entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050))
	require.NotNil(t, result.Position)

	require.Error(t, engine.ForceSettle("SIDEWAYS"))
	require.NoError(t, engine.ForceSettle(models.SideUp))

	status := engine.Status()
	require.Len(t, status.Trades, 1)
	assert.Equal(t, models.PaperPositionForceSettled, status.Trades[0].Status)
	assert.InDelta(t, 75.00, status.Trades[0].PnL, 1e-9)
}

func TestGateSequence(t *testing.T) {
	base := func() *models.MarketSnapshot {
		return entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050)
	}

	tests := []struct {
		name   string
		mutate func(e *Engine, snap *models.MarketSnapshot)
		want   string
	}{
		{
			name:   "disabled",
			mutate: func(e *Engine, snap *models.MarketSnapshot) { e.state.Enabled = false },
			want:   ReasonDisabled,
		},
		{
			name: "cooldown",
			mutate: func(e *Engine, snap *models.MarketSnapshot) {
				e.state.LastTradeAt = e.now().Add(-10 * time.Second)
			},
			want: ReasonCooldown,
		},
		{
			name:   "hold signal",
			mutate: func(e *Engine, snap *models.MarketSnapshot) { snap.Decision.Action = models.ActionHold },
			want:   ReasonNoSignal,
		},
		{
			name: "edge below paper minimum",
			mutate: func(e *Engine, snap *models.MarketSnapshot) {
				snap.Edge = &models.EdgeResult{EdgeUp: 0.06, EdgeDown: -0.06}
			},
			want: ReasonEdgeBelowMin,
		},
		{
			name:   "late phase",
			mutate: func(e *Engine, snap *models.MarketSnapshot) { snap.Decision.Phase = models.PhaseLate },
			want:   ReasonLatePhase,
		},
		{
			name:   "price at bound",
			mutate: func(e *Engine, snap *models.MarketSnapshot) { snap.VenueUpPrice = models.Float64(1.0) },
			want:   ReasonInvalidPrice,
		},
		{
			name:   "missing venue price",
			mutate: func(e *Engine, snap *models.MarketSnapshot) { snap.VenueUpPrice = nil },
			want:   ReasonInvalidPrice,
		},
		{
			name: "size below one share",
			mutate: func(e *Engine, snap *models.MarketSnapshot) {
				e.state.Balance = 15
				snap.VenueUpPrice = models.Float64(0.95)
			},
			want: ReasonTooSmall,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _, _ := newTestEngine(t)
			snap := base()
			tt.mutate(engine, snap)
			result := engine.Evaluate(snap)
			assert.Equal(t, tt.want, result.Reason)
			assert.Nil(t, result.Position)
		})
	}
}

func TestAutoResetFoldsSessionOnce(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	// One full losing round so the session has history worth folding.
	snap := entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050)
	result := engine.Evaluate(snap)
	require.NotNil(t, result.Position)
	*clock = clock.Add(time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1200", 60000, 59000)) // DOWN outcome
	*clock = clock.Add(time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1215", 61000, 61000))

	sessionBefore := engine.Status().SessionStats
	require.Equal(t, 1, sessionBefore.Trades)
	require.Equal(t, 1, sessionBefore.Losses)

	// Drain the balance below the threshold with no open positions.
	engine.state.Balance = 9.50

	allowed, reason := engine.CanTrade(nil)
	assert.False(t, allowed)
	assert.Equal(t, ReasonResetPending, reason)

	status := engine.Status()
	assert.InDelta(t, 1000, status.Balance, 1e-9, "fresh session starts at the configured balance")
	assert.Equal(t, 0, status.SessionStats.Trades)
	require.Len(t, status.SessionHistory, 1)
	assert.True(t, status.SessionHistory[0].Wiped)

	assert.Equal(t, sessionBefore.Trades, status.Lifetime.Trades, "folded exactly once")
	assert.Equal(t, sessionBefore.Wins, status.Lifetime.Wins)
	assert.Equal(t, sessionBefore.Losses, status.Lifetime.Losses)

	// A second pass must not fold again.
	allowed, reason = engine.CanTrade(holdSnapshot("btc-15m-1215", 61000, 61000))
	assert.False(t, allowed)
	assert.Equal(t, ReasonNoSignal, reason)
	assert.Equal(t, sessionBefore.Trades, engine.Status().Lifetime.Trades)
}

func TestResetKeepsHistoryOnlyWithTrades(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	require.NoError(t, engine.Reset(500))
	status := engine.Status()
	assert.Empty(t, status.SessionHistory, "empty sessions are not recorded")
	assert.InDelta(t, 500, status.Balance, 1e-9)

	result := engine.Evaluate(entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050))
	require.NotNil(t, result.Position)
	require.NoError(t, engine.ForceSettle(models.SideUp))
	require.NoError(t, engine.Reset(0))

	status = engine.Status()
	require.Len(t, status.SessionHistory, 1)
	assert.InDelta(t, 1000, status.Balance, 1e-9, "zero starting balance uses the default")
	assert.Empty(t, status.Trades)
}

func TestResetRejectsOpenPositions(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	result := engine.Evaluate(entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050))
	require.NotNil(t, result.Position)

	require.Error(t, engine.Reset(0))

	status := engine.Status()
	require.Len(t, status.OpenPositions(), 1, "the open position survives the refused reset")
	assert.InDelta(t, 1000, status.Balance+status.OpenCost(), 1e-9,
		"balance plus open cost stays conserved")
	assert.Empty(t, status.SessionHistory)

	// Once settled, the same reset goes through.
	require.NoError(t, engine.ForceSettle(models.SideUp))
	require.NoError(t, engine.Reset(0))
	assert.Empty(t, engine.Status().Trades)
}

func TestDeferredPositionsAwaitForceSettle(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	snap := entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050)
	snap.PriceToBeat = nil
	require.NotNil(t, engine.Evaluate(snap).Position)

	// Repeated slug changes never resolve the abandoned position.
	*clock = clock.Add(time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1215", 61000, 61000))
	*clock = clock.Add(time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1230", 61500, 61500))

	status := engine.Status()
	require.Len(t, status.OpenPositions(), 1)
	assert.Equal(t, "btc-15m-1200", status.OpenPositions()[0].MarketSlug)

	// It blocks auto-reset rather than being wiped with the session.
	engine.state.Balance = 5
	allowed, reason := engine.CanTrade(nil)
	require.False(t, allowed)
	assert.Equal(t, ReasonBalanceBelowMinimum, reason)

	// The operator path resolves it and unblocks the reset.
	require.NoError(t, engine.ForceSettle(models.SideDown))
	settled := engine.Status()
	assert.Empty(t, settled.OpenPositions())
	_, reason = engine.CanTrade(nil)
	assert.Equal(t, ReasonResetPending, reason)
}

func TestPersistenceRoundTrip(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	result := engine.Evaluate(entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050))
	require.NotNil(t, result.Position)
	*clock = clock.Add(time.Minute)
	engine.Evaluate(holdSnapshot("btc-15m-1200", 60000, 60123))

	before := engine.Status()

	reloaded := NewEngine(testPaperConfig(), store, testLogger())
	after := reloaded.Status()

	beforeDoc, err := json.Marshal(before)
	require.NoError(t, err)
	afterDoc, err := json.Marshal(after)
	require.NoError(t, err)
	assert.JSONEq(t, string(beforeDoc), string(afterDoc), "state reloads verbatim")
}

func TestCorruptStoreFallsBackToFreshState(t *testing.T) {
	store := &memStore{doc: []byte("{not json")}
	engine := NewEngine(testPaperConfig(), store, testLogger())

	status := engine.Status()
	assert.InDelta(t, 1000, status.Balance, 1e-9)
	assert.Empty(t, status.Trades)
}

func TestPersistFailureKeepsInMemoryState(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	store.failSave = true

	result := engine.Evaluate(entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050))
	require.NotNil(t, result.Position)
	assert.InDelta(t, 950, engine.Status().Balance, 1e-9)
}

func TestResetAllWipesLifetime(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	result := engine.Evaluate(entrySnapshot("btc-15m-1200", 0.40, 0.25, 60000, 60050))
	require.NotNil(t, result.Position)
	require.NoError(t, engine.ForceSettle(models.SideUp))
	require.NoError(t, engine.Reset(0))
	require.Equal(t, 1, engine.Status().Lifetime.Trades)

	engine.ResetAll()
	status := engine.Status()
	assert.Zero(t, status.Lifetime.Trades)
	assert.Empty(t, status.SessionHistory)
	assert.InDelta(t, 1000, status.Balance, 1e-9)
}
