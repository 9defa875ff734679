package indicators

type RSIService struct{}

// RSIResult holds the RSI series and the latest reading. Series entries
// before index `period` are warm-up zeros and not meaningful.
type RSIResult struct {
	Series []float64
	Value  float64
	Slope  float64 // change per bar over the slope lookback
}

func NewRSIService() *RSIService {
	return &RSIService{}
}

// Calculate computes Wilder-smoothed RSI over the close series. Returns nil
// when fewer than period+1 closes are available. Values are bounded to
// [0,100] by construction: 100 when the average loss is exactly zero with a
// positive average gain, 50 when both averages are zero.
func (s *RSIService) Calculate(closes []float64, period, slopeLookback int) *RSIResult {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	rsi := make([]float64, len(closes))

	// Seed averages with a simple mean over the first `period` changes.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	// Wilder smoothing for the remainder of the series.
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		rsi[i] = rsiValue(avgGain, avgLoss)
	}

	last := len(closes) - 1
	result := &RSIResult{
		Series: rsi,
		Value:  rsi[last],
	}
	if slopeLookback > 0 && last-slopeLookback >= period {
		result.Slope = (rsi[last] - rsi[last-slopeLookback]) / float64(slopeLookback)
	}
	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
