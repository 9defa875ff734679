package trading

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"PredictionTradeBot/config"
	"PredictionTradeBot/internal/models"
)

// Gate rejection reasons for live order submission.
const (
	ReasonOK             = "ok"
	ReasonDisabled       = "disabled"
	ReasonNotReady       = "not_ready"
	ReasonDailyLossLimit = "daily_loss_limit"
	ReasonCooldown       = "cooldown"
	ReasonNoSignal       = "no_signal"
	ReasonEdgeBelowMin   = "edge_below_min"
	ReasonNotStrong      = "strength_not_strong"
	ReasonMissingTokenID = "missing_token_id"
	ReasonInvalidPrice   = "invalid_price"
	ReasonSubmitFailed   = "submit_failed"
)

// VenueTrader submits and manages real money orders.
type VenueTrader interface {
	SubmitBuyOrder(ctx context.Context, tokenID string, price, size float64) (*models.OrderResult, error)
	CancelAllOrders(ctx context.Context) error
	ListOpenOrders(ctx context.Context) ([]models.OpenOrder, error)
}

// OrderJournal records submitted orders for audit and daily accounting.
type OrderJournal interface {
	Create(order *models.OrderRecord) error
}

// ExecResult reports one live execution attempt.
type ExecResult struct {
	Reason string
	Order  *models.OrderResult
}

// LiveTraderStatus is a point-in-time view of the controller.
type LiveTraderStatus struct {
	Enabled     bool
	DailyPnL    float64
	LastTradeAt time.Time
	Config      config.RiskConfig
}

// LiveTrader gates real order submission behind a strict risk sequence. It is
// deliberately more conservative than the paper engine: only STRONG signals
// pass, and a daily loss limit halts trading until the next UTC day.
type LiveTrader struct {
	mu      sync.Mutex
	cfg     config.RiskConfig
	venue   VenueTrader
	journal OrderJournal
	log     *logrus.Logger

	enabled     bool
	lastTradeAt time.Time
	dailyPnL    float64
	dailyAnchor time.Time // UTC midnight of the day dailyPnL covers
	now         func() time.Time
}

func NewLiveTrader(cfg config.RiskConfig, venue VenueTrader, journal OrderJournal, log *logrus.Logger) *LiveTrader {
	return &LiveTrader{
		cfg:     cfg,
		venue:   venue,
		journal: journal,
		log:     log,
		enabled: cfg.Enabled,
		now:     time.Now,
	}
}

// Execute runs one snapshot through the risk gates and, when all pass,
// submits a buy order for the decided side. Gate rejections are reported as
// reasons, not errors; only venue and journal failures return an error.
func (t *LiveTrader) Execute(ctx context.Context, snap *models.MarketSnapshot) (ExecResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollDailyWindow()

	if reason := t.gateLocked(snap); reason != ReasonOK {
		return ExecResult{Reason: reason}, nil
	}

	side := snap.Decision.Side
	tokenID := sideTokenID(snap.Market, side)
	price := sideVenuePrice(snap, side)
	_, best := snap.Edge.Best()
	size := t.orderSize(best)

	result, err := t.venue.SubmitBuyOrder(ctx, tokenID, *price, size)
	if err != nil {
		return ExecResult{Reason: ReasonSubmitFailed}, fmt.Errorf("submit buy order: %w", err)
	}
	if !result.Success {
		t.log.WithFields(logrus.Fields{
			"slug":  snap.Slug(),
			"side":  side,
			"error": result.Error,
		}).Warn("live: venue rejected order")
		return ExecResult{Reason: ReasonSubmitFailed, Order: result}, nil
	}

	t.lastTradeAt = t.now()

	record := &models.OrderRecord{
		OrderID:    result.OrderID,
		MarketSlug: snap.Slug(),
		TokenID:    tokenID,
		Side:       side,
		Price:      *price,
		Size:       size,
		Edge:       best,
		Status:     models.OrderStatusOpen,
	}
	if err := t.journal.Create(record); err != nil {
		// The order is already live; journaling is best effort.
		t.log.WithError(err).Error("live: failed to journal order")
	}

	t.log.WithFields(logrus.Fields{
		"orderId": result.OrderID,
		"slug":    record.MarketSlug,
		"side":    side,
		"price":   record.Price,
		"size":    record.Size,
		"edge":    best,
	}).Info("live: order submitted")

	return ExecResult{Reason: ReasonOK, Order: result}, nil
}

// CanTrade reports whether Execute would submit for this snapshot.
func (t *LiveTrader) CanTrade(snap *models.MarketSnapshot) (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollDailyWindow()
	reason := t.gateLocked(snap)
	return reason == ReasonOK, reason
}

func (t *LiveTrader) gateLocked(snap *models.MarketSnapshot) string {
	if !t.enabled {
		return ReasonDisabled
	}

	if snap == nil || snap.Market == nil {
		return ReasonNotReady
	}

	if t.cfg.DailyLossLimit > 0 && t.dailyPnL <= -t.cfg.DailyLossLimit {
		return ReasonDailyLossLimit
	}

	if !t.lastTradeAt.IsZero() && t.now().Sub(t.lastTradeAt) < t.cfg.Cooldown {
		return ReasonCooldown
	}

	if snap.Decision.Action != models.ActionEnter {
		return ReasonNoSignal
	}

	if snap.Edge == nil {
		return ReasonNoSignal
	}
	_, best := snap.Edge.Best()
	if best < t.cfg.MinEdge {
		return ReasonEdgeBelowMin
	}

	if snap.Decision.Strength != models.StrengthStrong {
		return ReasonNotStrong
	}

	if sideTokenID(snap.Market, snap.Decision.Side) == "" {
		return ReasonMissingTokenID
	}

	price := sideVenuePrice(snap, snap.Decision.Side)
	if price == nil || *price <= 0 || *price >= 1 {
		return ReasonInvalidPrice
	}

	return ReasonOK
}

// orderSize scales the configured maximum linearly with edge, reaching the
// full size at EdgeFullScale and never exceeding it.
func (t *LiveTrader) orderSize(edge float64) float64 {
	if t.cfg.EdgeFullScale <= 0 {
		return t.cfg.MaxOrderSize
	}
	scaled := t.cfg.MaxOrderSize * (edge / t.cfg.EdgeFullScale)
	return math.Min(scaled, t.cfg.MaxOrderSize)
}

// rollDailyWindow clears the daily PnL accumulator at UTC day boundaries.
func (t *LiveTrader) rollDailyWindow() {
	today := t.now().UTC().Truncate(24 * time.Hour)
	if !today.Equal(t.dailyAnchor) {
		t.dailyAnchor = today
		t.dailyPnL = 0
	}
}

// RecordPnL feeds realized results into the daily loss accounting.
func (t *LiveTrader) RecordPnL(pnl float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollDailyWindow()
	t.dailyPnL += pnl
	if t.cfg.DailyLossLimit > 0 && t.dailyPnL <= -t.cfg.DailyLossLimit {
		t.log.WithField("dailyPnl", t.dailyPnL).Warn("live: daily loss limit reached, trading halted")
	}
}

// Enable turns live order submission on.
func (t *LiveTrader) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
}

// Disable turns live order submission off. Resting orders are untouched;
// callers wanting a flat book should also CancelAll.
func (t *LiveTrader) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

// CancelAll cancels every resting venue order.
func (t *LiveTrader) CancelAll(ctx context.Context) error {
	return t.venue.CancelAllOrders(ctx)
}

// OpenOrders lists resting venue orders.
func (t *LiveTrader) OpenOrders(ctx context.Context) ([]models.OpenOrder, error) {
	return t.venue.ListOpenOrders(ctx)
}

// Configure updates the numeric risk limits at runtime. Invalid values reject
// the whole request.
func (t *LiveTrader) Configure(minEdge, edgeFullScale, maxOrderSize float64, cooldown time.Duration, dailyLossLimit float64) error {
	if minEdge < 0 || minEdge > 1 {
		return fmt.Errorf("min edge %v out of range", minEdge)
	}
	if edgeFullScale <= 0 || edgeFullScale > 1 {
		return fmt.Errorf("edge full scale %v out of range", edgeFullScale)
	}
	if maxOrderSize <= 0 {
		return fmt.Errorf("max order size %v out of range", maxOrderSize)
	}
	if cooldown < 0 {
		return fmt.Errorf("cooldown %v out of range", cooldown)
	}
	if dailyLossLimit < 0 {
		return fmt.Errorf("daily loss limit %v out of range", dailyLossLimit)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.MinEdge = minEdge
	t.cfg.EdgeFullScale = edgeFullScale
	t.cfg.MaxOrderSize = maxOrderSize
	t.cfg.Cooldown = cooldown
	t.cfg.DailyLossLimit = dailyLossLimit
	return nil
}

// Status returns a snapshot of the controller for the serving layer.
func (t *LiveTrader) Status() LiveTraderStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return LiveTraderStatus{
		Enabled:     t.enabled,
		DailyPnL:    t.dailyPnL,
		LastTradeAt: t.lastTradeAt,
		Config:      t.cfg,
	}
}

func sideTokenID(market *models.MarketDescriptor, side string) string {
	switch side {
	case models.SideUp:
		return market.UpTokenID
	case models.SideDown:
		return market.DownTokenID
	default:
		return ""
	}
}

func sideVenuePrice(snap *models.MarketSnapshot, side string) *float64 {
	switch side {
	case models.SideUp:
		return snap.VenueUpPrice
	case models.SideDown:
		return snap.VenueDownPrice
	default:
		return nil
	}
}
