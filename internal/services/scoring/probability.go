package scoring

import (
	"math"
	"time"

	"PredictionTradeBot/config"
	"PredictionTradeBot/internal/models"
)

// Scorer combines indicator readings into a directional probability and
// applies the remaining-time decay. Each rule contributes a bounded
// increment around 0.5; the aggregate is clamped to [0,1].
type Scorer struct {
	cfg config.ScoringConfig
}

func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score produces the probability estimate for one cycle. remaining is the
// time left in the market window; window is the full window length.
func (s *Scorer) Score(snap models.IndicatorSnapshot, regime models.RegimeLabel, remaining, window time.Duration) models.ProbabilityEstimate {
	raw := s.rawUp(snap, regime)
	adjusted := 0.5 + (raw-0.5)*s.decayFactor(remaining, window)

	return models.ProbabilityEstimate{
		RawUp:        raw,
		AdjustedUp:   adjusted,
		AdjustedDown: 1 - adjusted,
	}
}

func (s *Scorer) rawUp(snap models.IndicatorSnapshot, regime models.RegimeLabel) float64 {
	bias := 0.5

	if snap.VWAPDistance != nil {
		bias += s.cfg.VWAPDistanceWeight * clamp(*snap.VWAPDistance/0.0025, -1, 1)
	}
	if snap.VWAPSlope != nil && snap.VWAP != nil && *snap.VWAP != 0 {
		slopeRatio := *snap.VWAPSlope / *snap.VWAP
		bias += s.cfg.VWAPSlopeWeight * clamp(slopeRatio/0.00005, -1, 1)
	}
	if snap.RSI != nil {
		bias += s.cfg.RSIWeight * clamp((*snap.RSI-50)/25, -1, 1)
	}
	if snap.MACD != nil {
		bias += s.cfg.MACDWeight * sign(snap.MACD.Hist)
		bias += s.cfg.MACDDeltaWeight * sign(snap.MACD.HistDelta)
	}
	if snap.HeikenStreak > 0 {
		streak := math.Min(float64(snap.HeikenStreak), 5)
		switch snap.HeikenColor {
		case "green":
			bias += s.cfg.HeikenWeight * streak
		case "red":
			bias -= s.cfg.HeikenWeight * streak
		}
	}
	switch regime {
	case models.RegimeTrendingUp:
		bias += s.cfg.RegimeWeight
	case models.RegimeTrendingDown:
		bias -= s.cfg.RegimeWeight
	}

	return clamp(bias, 0, 1)
}

// decayFactor shrinks confidence toward 0.5 as the window resolves. It is 1
// at the full window (no pull) and falls monotonically to the configured
// floor as remaining time approaches zero; it never flips the sign of the
// bias.
func (s *Scorer) decayFactor(remaining, window time.Duration) float64 {
	if window <= 0 {
		return 1
	}
	frac := clamp(remaining.Seconds()/window.Seconds(), 0, 1)
	floor := clamp(s.cfg.DecayFloor, 0, 1)
	return floor + (1-floor)*frac
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
