package models

import "time"

// Candle is a fixed-interval OHLCV bar. Immutable once fetched; consumers
// assume chronological order.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

const (
	CandleInterval1m  = "1m"
	CandleInterval5m  = "5m"
	CandleInterval15m = "15m"
)

// TypicalPrice is the (H+L+C)/3 price used for VWAP accumulation.
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3.0
}

// Closes extracts the close series from a candle window.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
