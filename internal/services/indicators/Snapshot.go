package indicators

import "PredictionTradeBot/internal/models"

// Params collects the lookback settings for one snapshot build.
type Params struct {
	RSIPeriod      int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int
	SlopeLookback  int
	CrossLookback  int
	VolumeLookback int
	RecentVolume   int
}

// DefaultParams returns the standard intraday settings.
func DefaultParams() Params {
	return Params{
		RSIPeriod:      14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
		SlopeLookback:  5,
		CrossLookback:  20,
		VolumeLookback: 20,
		RecentVolume:   3,
	}
}

// SnapshotService composes the individual indicator services into one
// IndicatorSnapshot per cycle.
type SnapshotService struct {
	params Params
	rsi    *RSIService
	macd   *MACDService
	vwap   *VWAPService
	heiken *HeikenAshiService
	cross  *CrossService
}

func NewSnapshotService(params Params) *SnapshotService {
	return &SnapshotService{
		params: params,
		rsi:    NewRSIService(),
		macd:   NewMACDService(),
		vwap:   NewVWAPService(),
		heiken: NewHeikenAshiService(),
		cross:  NewCrossService(),
	}
}

// Build derives every indicator from the candle window. Fields for series
// that have not warmed up stay nil; gaps in the window degrade quality but
// never fail the build.
func (s *SnapshotService) Build(candles []models.Candle) models.IndicatorSnapshot {
	var snap models.IndicatorSnapshot
	if len(candles) == 0 {
		return snap
	}

	closes := models.Closes(candles)

	if vwap := s.vwap.Calculate(candles, s.params.SlopeLookback); vwap != nil {
		snap.VWAP = models.Float64(vwap.Value)
		snap.VWAPSlope = models.Float64(vwap.Slope)
		snap.VWAPDistance = models.Float64(vwap.Distance)
		snap.CrossCount = s.cross.Count(closes, vwap.Series, s.params.CrossLookback)
	}

	if rsi := s.rsi.Calculate(closes, s.params.RSIPeriod, s.params.SlopeLookback); rsi != nil {
		snap.RSI = models.Float64(rsi.Value)
		snap.RSISlope = models.Float64(rsi.Slope)
	}

	if macd := s.macd.Calculate(closes, s.params.MACDFast, s.params.MACDSlow, s.params.MACDSignal); macd != nil {
		latest := macd.Latest
		snap.MACD = &latest
	}

	if heiken := s.heiken.Calculate(candles); heiken != nil {
		snap.HeikenColor = heiken.Color
		snap.HeikenStreak = heiken.Streak
	}

	snap.RecentVolume = meanVolume(candles, s.params.RecentVolume)
	snap.AverageVolume = meanVolume(candles, s.params.VolumeLookback)

	return snap
}

func meanVolume(candles []models.Candle, lookback int) float64 {
	if lookback <= 0 {
		return 0
	}
	if lookback > len(candles) {
		lookback = len(candles)
	}
	sum := 0.0
	for _, c := range candles[len(candles)-lookback:] {
		sum += c.Volume
	}
	return sum / float64(lookback)
}
