package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PredictionTradeBot/internal/models"
)

func makeCandles(closes []float64, volume float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = models.Candle{
			OpenTime:  base.Add(time.Duration(i) * time.Minute),
			CloseTime: base.Add(time.Duration(i+1) * time.Minute),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    volume,
		}
	}
	return out
}

func TestRSIReturnsNilWhenTooShort(t *testing.T) {
	s := NewRSIService()

	closes := []float64{1, 2, 3, 4, 5}
	assert.Nil(t, s.Calculate(closes, 5, 3), "need period+1 closes")
	assert.NotNil(t, s.Calculate(append(closes, 6), 5, 3))
}

func TestRSIStaysBounded(t *testing.T) {
	s := NewRSIService()

	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"all gains", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 100},
		{"all flat", []float64{5, 5, 5, 5, 5, 5, 5, 5}, 50},
		{"all losses", []float64{8, 7, 6, 5, 4, 3, 2, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Calculate(tt.closes, 4, 0)
			require.NotNil(t, result)
			assert.InDelta(t, tt.want, result.Value, 1e-9)
		})
	}
}

func TestRSIBoundedForMixedSeries(t *testing.T) {
	s := NewRSIService()

	closes := []float64{100, 103, 99, 104, 98, 105, 97, 106, 96, 107, 95, 108, 94, 109, 93, 110}
	result := s.Calculate(closes, 14, 3)
	require.NotNil(t, result)
	for i := 14; i < len(result.Series); i++ {
		assert.GreaterOrEqual(t, result.Series[i], 0.0)
		assert.LessOrEqual(t, result.Series[i], 100.0)
	}
}

func TestVWAPSeriesMatchesSessionValue(t *testing.T) {
	s := NewVWAPService()

	candles := makeCandles([]float64{10, 20, 30, 40}, 2)
	result := s.Calculate(candles, 2)
	require.NotNil(t, result)

	assert.Len(t, result.Series, len(candles), "series length equals candle count")
	assert.Equal(t, result.Series[len(result.Series)-1], result.Value, "session VWAP is the final series value")

	// Equal volumes: VWAP is the running mean of typical prices.
	assert.InDelta(t, 15.0, result.Series[1], 1e-9)
	assert.InDelta(t, 25.0, result.Value, 1e-9)
}

func TestVWAPZeroVolumeDoesNotCrash(t *testing.T) {
	s := NewVWAPService()

	candles := makeCandles([]float64{10, 12}, 0)
	result := s.Calculate(candles, 1)
	require.NotNil(t, result)
	assert.InDelta(t, 12.0, result.Value, 1e-9)
}

func TestVWAPNilOnEmptyWindow(t *testing.T) {
	assert.Nil(t, NewVWAPService().Calculate(nil, 2))
}

func TestCrossCountMonotonicSeries(t *testing.T) {
	s := NewCrossService()

	closes := []float64{11, 12, 13, 14, 15}
	vwap := []float64{10, 10, 10, 10, 10}
	count := s.Count(closes, vwap, 5)
	require.NotNil(t, count)
	assert.Equal(t, 0, *count, "non-crossing series never counts a cross")
}

func TestCrossCountSingleCross(t *testing.T) {
	s := NewCrossService()

	closes := []float64{11, 12, 9, 8, 7}
	vwap := []float64{10, 10, 10, 10, 10}
	count := s.Count(closes, vwap, 5)
	require.NotNil(t, count)
	assert.Equal(t, 1, *count)
}

func TestCrossCountZeroTouchDoesNotCountOrReset(t *testing.T) {
	s := NewCrossService()

	// +, 0, + — touching the VWAP is not a cross.
	count := s.Count([]float64{11, 10, 11}, []float64{10, 10, 10}, 3)
	require.NotNil(t, count)
	assert.Equal(t, 0, *count)

	// +, 0, - — the sign reference survives the touch, so this is one cross.
	count = s.Count([]float64{11, 10, 9}, []float64{10, 10, 10}, 3)
	require.NotNil(t, count)
	assert.Equal(t, 1, *count)
}

func TestCrossCountNilWhenShort(t *testing.T) {
	s := NewCrossService()
	assert.Nil(t, s.Count([]float64{1, 2}, []float64{1, 2}, 3))
}

func TestMACDNilUntilStable(t *testing.T) {
	s := NewMACDService()

	closes := make([]float64, 33)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	assert.Nil(t, s.Calculate(closes, 12, 26, 9), "needs slow+signal-1 bars")

	closes = append(closes, 134)
	result := s.Calculate(closes, 12, 26, 9)
	require.NotNil(t, result)
	assert.Len(t, result.MACD, len(closes))
}

func TestMACDHistDelta(t *testing.T) {
	s := NewMACDService()

	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)*float64(i)*0.01 // accelerating uptrend
	}
	result := s.Calculate(closes, 12, 26, 9)
	require.NotNil(t, result)

	last := len(closes) - 1
	assert.InDelta(t, result.Histogram[last]-result.Histogram[last-1], result.Latest.HistDelta, 1e-9)
	assert.Greater(t, result.Latest.HistDelta, 0.0, "accelerating trend expands the histogram")
}

func TestHeikenAshiStreak(t *testing.T) {
	s := NewHeikenAshiService()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var candles []models.Candle
	price := 100.0
	// Three falling candles then four rising ones.
	deltas := []float64{-1, -1, -1, 2, 2, 2, 2}
	for i, d := range deltas {
		open := price
		price += d
		lo, hi := open, price
		if lo > hi {
			lo, hi = hi, lo
		}
		candles = append(candles, models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     open, High: hi, Low: lo, Close: price, Volume: 1,
		})
	}

	result := s.Calculate(candles)
	require.NotNil(t, result)
	assert.Equal(t, HeikenGreen, result.Color)
	// The first rising candle after a fall is smoothed; the closing run is
	// still an uninterrupted green streak.
	assert.GreaterOrEqual(t, result.Streak, 3)
	assert.Len(t, result.Candles, len(candles))
}

func TestSnapshotBuildWarmupAndFull(t *testing.T) {
	svc := NewSnapshotService(DefaultParams())

	short := svc.Build(makeCandles([]float64{1, 2, 3}, 1))
	assert.Nil(t, short.RSI)
	assert.Nil(t, short.MACD)
	assert.Nil(t, short.CrossCount)
	assert.NotNil(t, short.VWAP, "VWAP needs only one bar")

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	full := svc.Build(makeCandles(closes, 5))
	assert.NotNil(t, full.RSI)
	assert.NotNil(t, full.RSISlope)
	assert.NotNil(t, full.MACD)
	assert.NotNil(t, full.VWAP)
	assert.NotNil(t, full.VWAPSlope)
	assert.NotNil(t, full.VWAPDistance)
	assert.NotNil(t, full.CrossCount)
	assert.NotEmpty(t, full.HeikenColor)
	assert.InDelta(t, 5.0, full.AverageVolume, 1e-9)
}

func TestSnapshotBuildEmptyWindow(t *testing.T) {
	svc := NewSnapshotService(DefaultParams())
	snap := svc.Build(nil)
	assert.Nil(t, snap.VWAP)
	assert.Zero(t, snap.HeikenStreak)
}
