package handlers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"PredictionTradeBot/config"
	"PredictionTradeBot/internal/models"
	"PredictionTradeBot/internal/operations/market"
	"PredictionTradeBot/internal/services/indicators"
	"PredictionTradeBot/internal/services/paper"
	"PredictionTradeBot/internal/services/regime"
	"PredictionTradeBot/internal/services/scoring"
	"PredictionTradeBot/internal/services/strategy"
	"PredictionTradeBot/internal/services/trading"
)

// ErrNotReady is returned by LatestSnapshot before the first cycle publishes.
var ErrNotReady = errors.New("no snapshot published yet")

// CandleSource provides spot market data.
type CandleSource interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
	FetchSpotPrice(ctx context.Context, symbol string) (float64, error)
}

// OracleSource provides the settlement reference price.
type OracleSource interface {
	FetchOraclePrice(ctx context.Context) (*models.OraclePrice, error)
}

// VenueSource provides prediction-market metadata and pricing.
type VenueSource interface {
	ResolveActiveMarket(ctx context.Context) (*models.MarketDescriptor, error)
	FetchBuyPrice(ctx context.Context, tokenID string) (*float64, error)
	FetchOrderBook(ctx context.Context, tokenID string) (*models.OrderBookSummary, error)
}

// TickSource provides the latest streamed spot trade.
type TickSource interface {
	Latest() *market.Tick
}

// PaperConsumer evaluates each published snapshot against the simulation.
type PaperConsumer interface {
	Evaluate(snap *models.MarketSnapshot) paper.EvalResult
}

// LiveConsumer evaluates each published snapshot for real execution.
type LiveConsumer interface {
	Execute(ctx context.Context, snap *models.MarketSnapshot) (trading.ExecResult, error)
}

// CycleHandler runs the single fetch -> compute -> decide -> act loop. It
// owns the price-to-beat latch and the published snapshot; everything else
// is stateless per cycle.
type CycleHandler struct {
	cfg    config.MarketConfig
	spot   CandleSource
	oracle OracleSource
	venue  VenueSource
	ticks  TickSource
	paper  PaperConsumer
	live   LiveConsumer
	log    *logrus.Logger

	snapshotSvc *indicators.SnapshotService
	classifier  *regime.Classifier
	scorer      *scoring.Scorer
	edgeCalc    *scoring.EdgeCalculator
	decider     *strategy.DecisionEngine

	latest atomic.Pointer[models.MarketSnapshot]

	// priceToBeat latch, scoped to one slug, set at most once per slug.
	latchSlug  string
	latchPrice *float64

	now func() time.Time
}

// Deps bundles the handler's collaborators. Ticks, Paper, and Live may be
// nil.
type Deps struct {
	Spot   CandleSource
	Oracle OracleSource
	Venue  VenueSource
	Ticks  TickSource
	Paper  PaperConsumer
	Live   LiveConsumer

	Snapshot *indicators.SnapshotService
	Regime   *regime.Classifier
	Scorer   *scoring.Scorer
	Edge     *scoring.EdgeCalculator
	Decision *strategy.DecisionEngine

	Log *logrus.Logger
}

func NewCycleHandler(cfg config.MarketConfig, deps Deps) *CycleHandler {
	return &CycleHandler{
		cfg:         cfg,
		spot:        deps.Spot,
		oracle:      deps.Oracle,
		venue:       deps.Venue,
		ticks:       deps.Ticks,
		paper:       deps.Paper,
		live:        deps.Live,
		log:         deps.Log,
		snapshotSvc: deps.Snapshot,
		classifier:  deps.Regime,
		scorer:      deps.Scorer,
		edgeCalc:    deps.Edge,
		decider:     deps.Decision,
		now:         time.Now,
	}
}

// LatestSnapshot returns the last published snapshot. Before the first
// successful cycle it returns ErrNotReady; afterwards it always returns the
// last good snapshot, even while a cycle is failing.
func (h *CycleHandler) LatestSnapshot() (*models.MarketSnapshot, error) {
	snap := h.latest.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Run executes cycles at the configured poll interval until the context is
// cancelled. A failed cycle logs and skips; it never stops the loop.
func (h *CycleHandler) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	h.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.RunCycle(ctx)
		}
	}
}

// fetchResults carries every per-call outcome explicitly; no fetch failure
// is ever swallowed into a catch-all.
type fetchResults struct {
	candles    []models.Candle
	candlesErr error

	spotPrice float64
	spotErr   error

	oracle    *models.OraclePrice
	oracleErr error

	market    *models.MarketDescriptor
	marketErr error
}

// sideQuotes is the venue pricing for one outcome token.
type sideQuotes struct {
	book     *models.OrderBookSummary
	bookErr  error
	quote    *float64
	quoteErr error
}

// RunCycle performs one full cycle. Exported for the serving layer's manual
// refresh; Run calls it on the ticker.
func (h *CycleHandler) RunCycle(ctx context.Context) {
	res := h.fetchAll(ctx)

	// Indicators are the backbone; without candles there is nothing to
	// score, so the cycle skips and the previous snapshot stands.
	if res.candlesErr != nil {
		h.log.WithError(res.candlesErr).Warn("cycle: candle fetch failed, skipping")
		return
	}
	h.logFetchFailures(res)

	snap := h.buildSnapshot(ctx, res)
	h.latest.Store(snap)

	if h.paper != nil {
		result := h.paper.Evaluate(snap)
		if result.Reason == paper.ReasonOK {
			h.log.WithField("slug", snap.Slug()).Info("cycle: paper entry")
		}
	}
	if h.live != nil {
		if _, err := h.live.Execute(ctx, snap); err != nil {
			h.log.WithError(err).Error("cycle: live execution failed")
		}
	}
}

// fetchAll runs the independent fetches concurrently and joins them into
// explicit per-call results.
func (h *CycleHandler) fetchAll(ctx context.Context) fetchResults {
	var res fetchResults
	var wg sync.WaitGroup

	wg.Add(4)
	go func() {
		defer wg.Done()
		res.candles, res.candlesErr = h.spot.FetchCandles(ctx, h.cfg.Symbol, h.cfg.CandleInterval, h.cfg.CandleLimit)
	}()
	go func() {
		defer wg.Done()
		res.spotPrice, res.spotErr = h.spot.FetchSpotPrice(ctx, h.cfg.Symbol)
	}()
	go func() {
		defer wg.Done()
		res.oracle, res.oracleErr = h.oracle.FetchOraclePrice(ctx)
	}()
	go func() {
		defer wg.Done()
		res.market, res.marketErr = h.venue.ResolveActiveMarket(ctx)
	}()
	wg.Wait()

	return res
}

func (h *CycleHandler) fetchSide(ctx context.Context, tokenID string) sideQuotes {
	var q sideQuotes
	if tokenID == "" {
		return q
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		q.book, q.bookErr = h.venue.FetchOrderBook(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		q.quote, q.quoteErr = h.venue.FetchBuyPrice(ctx, tokenID)
	}()
	wg.Wait()
	return q
}

// buildSnapshot assembles one immutable snapshot from the cycle's fetch
// results, applying the per-field fallback table.
func (h *CycleHandler) buildSnapshot(ctx context.Context, res fetchResults) *models.MarketSnapshot {
	now := h.now()

	snap := &models.MarketSnapshot{
		Timestamp: now,
		Market:    res.market,
	}
	// Spot price fallback table: REST fetch, then a fresh streamed tick,
	// then nil.
	if res.spotErr == nil {
		snap.SpotPrice = models.Float64(res.spotPrice)
	} else if tick := h.freshTick(now); tick != nil {
		snap.SpotPrice = models.Float64(tick.Price)
	}
	if res.oracleErr == nil {
		snap.OraclePrice = res.oracle
	}

	var remaining time.Duration
	if res.market != nil {
		remaining = res.market.SettlementTime.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingSeconds = remaining.Seconds()

		up := h.fetchSide(ctx, res.market.UpTokenID)
		down := h.fetchSide(ctx, res.market.DownTokenID)
		snap.BookUp = up.book
		snap.BookDown = down.book
		snap.VenueUpPrice = sidePrice(up)
		snap.VenueDownPrice = sidePrice(down)
	}

	h.updateLatch(res.market, snap.OraclePrice, now)
	snap.PriceToBeat = h.latchPrice

	snap.Indicators = h.snapshotSvc.Build(res.candles)
	snap.Regime = h.classifier.Classify(snap.Indicators)

	prob := h.scorer.Score(snap.Indicators, snap.Regime, remaining, h.cfg.WindowDuration)
	snap.Probability = &prob
	snap.Edge = h.edgeCalc.Calculate(&prob, snap.VenueUpPrice, snap.VenueDownPrice)
	snap.Decision = h.decider.Decide(remaining, snap.Edge, snap.Probability)

	return snap
}

// spotTickMaxAge bounds how stale a streamed tick may be when standing in
// for a failed spot price fetch.
const spotTickMaxAge = 30 * time.Second

// freshTick returns the latest streamed trade if one exists and is recent
// enough to trust.
func (h *CycleHandler) freshTick(now time.Time) *market.Tick {
	if h.ticks == nil {
		return nil
	}
	tick := h.ticks.Latest()
	if tick == nil || now.Sub(tick.At) > spotTickMaxAge {
		return nil
	}
	return tick
}

// sidePrice applies the market-implied price fallback table for one side:
// order-book best ask, then the venue buy quote, then nil.
func sidePrice(q sideQuotes) *float64 {
	if q.bookErr == nil && q.book != nil && q.book.BestAsk > 0 {
		return models.Float64(q.book.BestAsk)
	}
	if q.quoteErr == nil && q.quote != nil {
		return q.quote
	}
	return nil
}

// updateLatch maintains the price-to-beat: cleared when the tracked slug
// changes, then set at most once per slug after the window's nominal start,
// from the first oracle reading seen.
func (h *CycleHandler) updateLatch(market *models.MarketDescriptor, oracle *models.OraclePrice, now time.Time) {
	if market == nil {
		return
	}
	if market.Slug != h.latchSlug {
		h.latchSlug = market.Slug
		h.latchPrice = nil
	}
	if h.latchPrice != nil {
		return
	}
	if oracle == nil {
		return
	}
	if now.Before(market.WindowStart(h.cfg.WindowDuration)) {
		return
	}
	h.latchPrice = models.Float64(oracle.Price)
	h.log.WithFields(logrus.Fields{
		"slug":        market.Slug,
		"priceToBeat": oracle.Price,
	}).Info("cycle: price-to-beat latched")
}

func (h *CycleHandler) logFetchFailures(res fetchResults) {
	if res.spotErr != nil {
		h.log.WithError(res.spotErr).Warn("cycle: spot price fetch failed")
	}
	if res.oracleErr != nil {
		h.log.WithError(res.oracleErr).Warn("cycle: oracle fetch failed")
	}
	if res.marketErr != nil {
		h.log.WithError(res.marketErr).Warn("cycle: market resolve failed")
	}
}
