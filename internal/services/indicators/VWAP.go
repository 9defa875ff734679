package indicators

import "PredictionTradeBot/internal/models"

type VWAPService struct{}

// VWAPResult holds the running session VWAP evaluated at every index plus
// derived metrics at the latest bar.
type VWAPResult struct {
	Series   []float64
	Value    float64 // session VWAP; equals Series[len-1]
	Slope    float64 // change per bar over the slope lookback
	Distance float64 // (close - vwap) / vwap at the latest bar
}

func NewVWAPService() *VWAPService {
	return &VWAPService{}
}

// Calculate computes the cumulative volume-weighted average price over the
// supplied window in a single pass. The session boundary is the window start;
// callers reset by supplying a new window. Returns nil for an empty window.
func (s *VWAPService) Calculate(candles []models.Candle, slopeLookback int) *VWAPResult {
	if len(candles) == 0 {
		return nil
	}

	series := make([]float64, len(candles))
	var cumPV, cumVol float64
	for i, c := range candles {
		cumPV += c.TypicalPrice() * c.Volume
		cumVol += c.Volume
		if cumVol > 0 {
			series[i] = cumPV / cumVol
		} else {
			// Zero traded volume so far; fall back to the typical price so
			// the series stays finite.
			series[i] = c.TypicalPrice()
		}
	}

	last := len(candles) - 1
	result := &VWAPResult{
		Series: series,
		Value:  series[last],
	}
	if slopeLookback > 0 && last >= slopeLookback {
		result.Slope = (series[last] - series[last-slopeLookback]) / float64(slopeLookback)
	}
	if result.Value != 0 {
		result.Distance = (candles[last].Close - result.Value) / result.Value
	}
	return result
}
