package indicators

import "PredictionTradeBot/internal/models"

const (
	HeikenGreen = "green"
	HeikenRed   = "red"
	HeikenFlat  = "flat"
)

type HeikenAshiService struct{}

// HeikenCandle is one smoothed candle.
type HeikenCandle struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	Color string
}

// HeikenResult holds the recolored series and the run length of same-colored
// candles ending at the most recent one.
type HeikenResult struct {
	Candles []HeikenCandle
	Color   string
	Streak  int
}

func NewHeikenAshiService() *HeikenAshiService {
	return &HeikenAshiService{}
}

// Calculate applies the standard Heiken-Ashi smoothing transform and counts
// the current color streak. Stateless per call; returns nil for an empty
// window.
func (s *HeikenAshiService) Calculate(candles []models.Candle) *HeikenResult {
	if len(candles) == 0 {
		return nil
	}

	ha := make([]HeikenCandle, len(candles))
	for i, c := range candles {
		haClose := (c.Open + c.High + c.Low + c.Close) / 4.0
		var haOpen float64
		if i == 0 {
			haOpen = (c.Open + c.Close) / 2.0
		} else {
			haOpen = (ha[i-1].Open + ha[i-1].Close) / 2.0
		}

		ha[i] = HeikenCandle{
			Open:  haOpen,
			High:  max3(c.High, haOpen, haClose),
			Low:   min3(c.Low, haOpen, haClose),
			Close: haClose,
			Color: heikenColor(haOpen, haClose),
		}
	}

	last := len(ha) - 1
	streak := 1
	for i := last - 1; i >= 0 && ha[i].Color == ha[last].Color; i-- {
		streak++
	}

	return &HeikenResult{
		Candles: ha,
		Color:   ha[last].Color,
		Streak:  streak,
	}
}

func heikenColor(open, close float64) string {
	switch {
	case close > open:
		return HeikenGreen
	case close < open:
		return HeikenRed
	default:
		return HeikenFlat
	}
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
