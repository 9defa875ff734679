package indicators

import "PredictionTradeBot/internal/models"

type MACDService struct {
	ema *EMAService
}

// MACDResult holds the MACD, signal, and histogram series plus the latest
// reading. Latest.HistDelta is the histogram change versus the prior bar,
// the expansion/contraction second derivative.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
	Latest    models.MACDValue
}

func NewMACDService() *MACDService {
	return &MACDService{
		ema: NewEMAService(),
	}
}

// Calculate returns the MACD series, or nil until enough closes exist for
// the slow average and signal line to stabilize (slow+signal-1 bars).
// Default periods: fast=12, slow=26, signal=9.
func (s *MACDService) Calculate(closes []float64, fastPeriod, slowPeriod, signalPeriod int) *MACDResult {
	if !s.validatePeriods(closes, fastPeriod, slowPeriod, signalPeriod) {
		return nil
	}

	fastEMA := s.ema.Calculate(closes, fastPeriod)
	slowEMA := s.ema.Calculate(closes, slowPeriod)

	macdLine := make([]float64, len(closes))
	for i := slowPeriod - 1; i < len(closes); i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := s.ema.Calculate(macdLine, signalPeriod)

	firstStable := slowPeriod + signalPeriod - 2
	histogram := make([]float64, len(closes))
	for i := firstStable; i < len(closes); i++ {
		histogram[i] = macdLine[i] - signalLine[i]
	}

	last := len(closes) - 1
	latest := models.MACDValue{
		Value:  macdLine[last],
		Signal: signalLine[last],
		Hist:   histogram[last],
	}
	if last > firstStable {
		latest.HistDelta = histogram[last] - histogram[last-1]
	}

	return &MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: histogram,
		Latest:    latest,
	}
}

func (s *MACDService) validatePeriods(closes []float64, fastPeriod, slowPeriod, signalPeriod int) bool {
	minLength := slowPeriod + signalPeriod - 1
	return len(closes) >= minLength &&
		fastPeriod > 0 &&
		slowPeriod > fastPeriod &&
		signalPeriod > 0
}
