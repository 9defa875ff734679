package models

import "time"

const (
	PaperPositionOpen         = "OPEN"
	PaperPositionSettled      = "SETTLED"
	PaperPositionForceSettled = "FORCE_SETTLED"
)

// PaperPosition is one simulated trade. Created on entry, mutated only at
// settlement, and kept in the session trade list afterwards.
type PaperPosition struct {
	ID         string     `json:"id"`
	MarketSlug string     `json:"marketSlug"`
	Side       string     `json:"side"`
	Shares     int        `json:"shares"`
	EntryPrice float64    `json:"entryPrice"`
	Cost       float64    `json:"cost"`
	Status     string     `json:"status"`
	PnL        float64    `json:"pnl"`
	OpenedAt   time.Time  `json:"openedAt"`
	SettledAt  *time.Time `json:"settledAt,omitempty"`
}

// PaperStats accumulates win/loss bookkeeping. Counters only ever grow except
// on an explicit full reset of the simulation.
type PaperStats struct {
	Trades        int     `json:"trades"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	CurrentStreak int     `json:"currentStreak"`
	BestStreak    int     `json:"bestStreak"`
	WorstStreak   int     `json:"worstStreak"`
	TotalPnL      float64 `json:"totalPnl"`
	TotalWagered  float64 `json:"totalWagered"`
	GrossPayout   float64 `json:"grossPayout"`
}

// SessionRecord is a closed paper session. Immutable once recorded.
type SessionRecord struct {
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         time.Time  `json:"endedAt"`
	StartingBalance float64    `json:"startingBalance"`
	EndingBalance   float64    `json:"endingBalance"`
	Wiped           bool       `json:"wiped"`
	Stats           PaperStats `json:"stats"`
}

// PaperState is the full persisted simulation state. It is written as one
// structured document after every state-changing operation and reloaded
// verbatim on construction.
type PaperState struct {
	Enabled          bool            `json:"enabled"`
	Balance          float64         `json:"balance"`
	StartingBalance  float64         `json:"startingBalance"`
	SessionStartedAt time.Time       `json:"sessionStartedAt"`
	Trades           []PaperPosition `json:"trades"`
	SessionStats     PaperStats      `json:"sessionStats"`
	SessionHistory   []SessionRecord `json:"sessionHistory"`
	Lifetime         PaperStats      `json:"lifetime"`
	SessionsClosed   int             `json:"sessionsClosed"`
	LastTradeAt      time.Time       `json:"lastTradeAt"`

	// Tracking context for slug-change settlement; mirrors the last snapshot
	// seen under TrackedSlug so settlement survives a restart.
	TrackedSlug     string   `json:"trackedSlug"`
	PriceToBeat     *float64 `json:"priceToBeat,omitempty"`
	LastOraclePrice *float64 `json:"lastOraclePrice,omitempty"`
}

// OpenPositions returns the positions still awaiting settlement.
func (s *PaperState) OpenPositions() []PaperPosition {
	var open []PaperPosition
	for _, p := range s.Trades {
		if p.Status == PaperPositionOpen {
			open = append(open, p)
		}
	}
	return open
}

// OpenCost is the capital currently locked in open positions.
func (s *PaperState) OpenCost() float64 {
	total := 0.0
	for _, p := range s.Trades {
		if p.Status == PaperPositionOpen {
			total += p.Cost
		}
	}
	return total
}
