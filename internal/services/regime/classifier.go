package regime

import "PredictionTradeBot/internal/models"

// Classifier maps the latest indicator readings to one market-regime label.
// Pure classification: no history beyond the supplied snapshot.
type Classifier struct {
	// A window crossing the VWAP this often is churn, not trend.
	choppyCrossCount int
	// Relative VWAP slope below this is treated as flat.
	flatSlopeRatio float64
	// Recent/average volume above this marks an active tape.
	activeVolumeRatio float64
}

func NewClassifier() *Classifier {
	return &Classifier{
		choppyCrossCount:  4,
		flatSlopeRatio:    0.00002,
		activeVolumeRatio: 1.2,
	}
}

// Classify returns exactly one RegimeLabel for the snapshot. Missing inputs
// degrade toward RegimeUnknown instead of failing.
func (c *Classifier) Classify(snap models.IndicatorSnapshot) models.RegimeLabel {
	if snap.VWAP == nil || snap.VWAPSlope == nil || snap.VWAPDistance == nil {
		return models.RegimeUnknown
	}

	if snap.CrossCount != nil && *snap.CrossCount >= c.choppyCrossCount {
		return models.RegimeChoppy
	}

	slope := *snap.VWAPSlope
	flatBand := c.flatSlopeRatio * *snap.VWAP
	if slope > flatBand && *snap.VWAPDistance > 0 {
		return models.RegimeTrendingUp
	}
	if slope < -flatBand && *snap.VWAPDistance < 0 {
		return models.RegimeTrendingDown
	}

	// Slope and position disagree, or the slope is flat. A quiet tape with
	// few crossings is a range; an active one is churn.
	if snap.AverageVolume > 0 && snap.RecentVolume/snap.AverageVolume >= c.activeVolumeRatio {
		return models.RegimeChoppy
	}
	return models.RegimeRanging
}
