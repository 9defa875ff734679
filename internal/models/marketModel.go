package models

import "time"

// MarketDescriptor is the normalized view of one active binary market. The
// venue client resolves the venue's loosely-typed payloads (string-or-array
// outcome lists) into this strict shape; the core never sees raw venue data.
type MarketDescriptor struct {
	Slug           string    `json:"slug"`
	Question       string    `json:"question"`
	OutcomeUp      string    `json:"outcomeUp"`
	OutcomeDown    string    `json:"outcomeDown"`
	UpTokenID      string    `json:"upTokenId"`
	DownTokenID    string    `json:"downTokenId"`
	SettlementTime time.Time `json:"settlementTime"`
	Liquidity      float64   `json:"liquidity"`
}

// WindowStart is the nominal opening time of the market window.
func (m *MarketDescriptor) WindowStart(window time.Duration) time.Time {
	return m.SettlementTime.Add(-window)
}

// OraclePrice is one reading from the settlement price feed.
type OraclePrice struct {
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updatedAt"`
	Source    string    `json:"source"`
}

// OrderBookSummary condenses one side's order book to the fields the core
// consumes.
type OrderBookSummary struct {
	BestBid   float64 `json:"bestBid"`
	BestAsk   float64 `json:"bestAsk"`
	Spread    float64 `json:"spread"`
	Liquidity float64 `json:"liquidity"`
}

// OrderResult reports a venue order submission.
type OrderResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OpenOrder is one resting venue order.
type OpenOrder struct {
	OrderID  string  `json:"orderId"`
	TokenID  string  `json:"tokenId"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Size     float64 `json:"size"`
	FilledAt float64 `json:"filledAt"`
}
