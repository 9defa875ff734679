package indicators

type CrossService struct{}

func NewCrossService() *CrossService {
	return &CrossService{}
}

// Count counts sign changes of (close - vwap) over the last `lookback` bars.
// An exact zero neither counts as a cross nor resets the previous sign
// reference. Returns nil when fewer than `lookback` bars of both series
// exist.
func (s *CrossService) Count(closes, vwap []float64, lookback int) *int {
	if lookback <= 0 || len(closes) < lookback || len(vwap) < lookback {
		return nil
	}

	closes = closes[len(closes)-lookback:]
	vwap = vwap[len(vwap)-lookback:]

	count := 0
	prevSign := 0
	for i := 0; i < lookback; i++ {
		diff := closes[i] - vwap[i]
		sign := 0
		if diff > 0 {
			sign = 1
		} else if diff < 0 {
			sign = -1
		}
		if sign == 0 {
			continue
		}
		if prevSign != 0 && sign != prevSign {
			count++
		}
		prevSign = sign
	}
	return &count
}
