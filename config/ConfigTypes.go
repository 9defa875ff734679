package config

import "time"

type Config struct {
	Exchange ExchangeConfig
	Database DatabaseConfig
	Market   MarketConfig
	Oracle   OracleConfig
	Venue    VenueConfig
	Scoring  ScoringConfig
	Decision DecisionConfig
	Risk     RiskConfig
	Paper    PaperConfig
	LogLevel string
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// MarketConfig describes the tracked pair and the cycle pacing.
type MarketConfig struct {
	Symbol         string        // spot symbol backing the market, e.g. BTCUSDT
	CandleInterval string        // indicator candle interval
	CandleLimit    int           // candles fetched per cycle
	WindowDuration time.Duration // binary market window length
	PollInterval   time.Duration // cycle pacing; the de facto backpressure control
}

type OracleConfig struct {
	BaseURL string
	Source  string
}

type VenueConfig struct {
	GammaURL   string // market metadata API
	ClobURL    string // pricing and order API
	SlugPrefix string // active-market lookup prefix, e.g. bitcoin-up-or-down
}

// ScoringConfig holds the probability rule-set weights and the time-decay
// floor. The coefficients are heuristic and tunable; only the clamping and
// monotonicity contracts are load-bearing.
type ScoringConfig struct {
	VWAPDistanceWeight float64
	VWAPSlopeWeight    float64
	RSIWeight          float64
	MACDWeight         float64
	MACDDeltaWeight    float64
	HeikenWeight       float64
	RegimeWeight       float64
	DecayFloor         float64 // residual confidence factor as remaining time reaches zero
}

type DecisionConfig struct {
	MinEdge        float64
	LateMinEdge    float64
	StrongEdge     float64
	EarlyRemaining time.Duration // remaining time above which the phase is EARLY
	LateRemaining  time.Duration // remaining time below which the phase is LATE
}

type RiskConfig struct {
	Enabled        bool
	MinEdge        float64
	EdgeFullScale  float64 // edge at which sizing reaches the per-trade maximum
	MaxOrderSize   float64 // per-trade maximum, USDC
	Cooldown       time.Duration
	DailyLossLimit float64
}

type PaperConfig struct {
	Enabled            bool
	StartingBalance    float64
	MinEdge            float64
	MaxBalanceFraction float64
	Cooldown           time.Duration
	AutoResetThreshold float64
}
