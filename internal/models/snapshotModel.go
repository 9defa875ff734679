package models

import "time"

// MACDValue is the trend oscillator reading at the latest bar.
type MACDValue struct {
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal"`
	Hist      float64 `json:"hist"`
	HistDelta float64 `json:"histDelta"`
}

// IndicatorSnapshot bundles the latest derived series values for one cycle.
// Pointer fields are nil when the underlying series has not warmed up yet.
type IndicatorSnapshot struct {
	VWAP          *float64   `json:"vwap"`
	VWAPSlope     *float64   `json:"vwapSlope"`
	VWAPDistance  *float64   `json:"vwapDistance"`
	RSI           *float64   `json:"rsi"`
	RSISlope      *float64   `json:"rsiSlope"`
	MACD          *MACDValue `json:"macd"`
	HeikenColor   string     `json:"heikenColor"`
	HeikenStreak  int        `json:"heikenStreak"`
	RecentVolume  float64    `json:"recentVolume"`
	AverageVolume float64    `json:"averageVolume"`
	CrossCount    *int       `json:"crossCount"`
}

// RegimeLabel classifies current market behavior. The set is closed; every
// classifier output is exactly one of these.
type RegimeLabel string

const (
	RegimeTrendingUp   RegimeLabel = "TRENDING_UP"
	RegimeTrendingDown RegimeLabel = "TRENDING_DOWN"
	RegimeRanging      RegimeLabel = "RANGING"
	RegimeChoppy       RegimeLabel = "CHOPPY"
	RegimeUnknown      RegimeLabel = "UNKNOWN"
)

// ProbabilityEstimate is the model's directional view for the current window.
type ProbabilityEstimate struct {
	RawUp        float64 `json:"rawUp"`
	AdjustedUp   float64 `json:"adjustedUp"`
	AdjustedDown float64 `json:"adjustedDown"`
}

// EdgeResult is model probability minus market-implied probability per side.
type EdgeResult struct {
	EdgeUp   float64 `json:"edgeUp"`
	EdgeDown float64 `json:"edgeDown"`
}

// Best returns the side with the larger edge and its value.
func (e EdgeResult) Best() (string, float64) {
	if e.EdgeUp >= e.EdgeDown {
		return SideUp, e.EdgeUp
	}
	return SideDown, e.EdgeDown
}

const (
	ActionHold  = "HOLD"
	ActionEnter = "ENTER"

	SideUp   = "UP"
	SideDown = "DOWN"

	StrengthGood   = "GOOD"
	StrengthStrong = "STRONG"

	PhaseEarly = "EARLY"
	PhaseMid   = "MID"
	PhaseLate  = "LATE"
)

// TradeDecision is the decision engine output. Side and Strength are empty
// when Action is HOLD.
type TradeDecision struct {
	Action   string `json:"action"`
	Side     string `json:"side,omitempty"`
	Strength string `json:"strength,omitempty"`
	Phase    string `json:"phase"`
	Reason   string `json:"reason,omitempty"`
}

// MarketSnapshot is the immutable output of one cycle. It is published by a
// single atomic replace; readers never observe a partially built value.
type MarketSnapshot struct {
	Timestamp        time.Time            `json:"timestamp"`
	Market           *MarketDescriptor    `json:"market"`
	SpotPrice        *float64             `json:"spotPrice"`
	OraclePrice      *OraclePrice         `json:"oraclePrice"`
	PriceToBeat      *float64             `json:"priceToBeat"`
	RemainingSeconds float64              `json:"remainingSeconds"`
	VenueUpPrice     *float64             `json:"venueUpPrice"`
	VenueDownPrice   *float64             `json:"venueDownPrice"`
	BookUp           *OrderBookSummary    `json:"bookUp"`
	BookDown         *OrderBookSummary    `json:"bookDown"`
	Indicators       IndicatorSnapshot    `json:"indicators"`
	Regime           RegimeLabel          `json:"regime"`
	Probability      *ProbabilityEstimate `json:"probability"`
	Edge             *EdgeResult          `json:"edge"`
	Decision         TradeDecision        `json:"decision"`
}

// Slug returns the tracked market slug, or "" when no market is resolved.
func (s *MarketSnapshot) Slug() string {
	if s == nil || s.Market == nil {
		return ""
	}
	return s.Market.Slug
}

// Float64 is a pointer helper for optional numeric fields.
func Float64(v float64) *float64 { return &v }
