package indicators

// EMAService provides Exponential Moving Average calculations
type EMAService struct{}

// NewEMAService creates a new EMA service instance
func NewEMAService() *EMAService {
	return &EMAService{}
}

// Calculate computes EMA for the entire price series. Entries before index
// period-1 are warm-up zeros. Returns nil when the series is shorter than
// the period.
func (s *EMAService) Calculate(prices []float64, period int) []float64 {
	if len(prices) == 0 || period <= 0 || len(prices) < period {
		return nil
	}

	ema := make([]float64, len(prices))
	multiplier := s.getMultiplier(period)

	// Seed with an SMA over the first period.
	ema[period-1] = s.calculateInitialSMA(prices, period)

	for i := period; i < len(prices); i++ {
		ema[i] = s.calculatePoint(prices[i], ema[i-1], multiplier)
	}

	return ema
}

func (s *EMAService) getMultiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

func (s *EMAService) calculateInitialSMA(prices []float64, period int) float64 {
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

func (s *EMAService) calculatePoint(price, prevEMA, multiplier float64) float64 {
	return (price-prevEMA)*multiplier + prevEMA
}
