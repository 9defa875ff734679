package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads configuration from the environment, with an optional .env file.
// Every numeric threshold has a default; malformed values fall back rather
// than failing startup.
func Load() (*Config, error) {
	// A missing .env file is fine; env vars may come from the process.
	_ = godotenv.Load()

	return &Config{
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		},
		Database: DatabaseConfig{
			Host:     envString("DB_HOST", "localhost"),
			Port:     envInt("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   envString("DB_NAME", "predictbot"),
		},
		Market: MarketConfig{
			Symbol:         envString("MARKET_SYMBOL", "BTCUSDT"),
			CandleInterval: envString("CANDLE_INTERVAL", "1m"),
			CandleLimit:    envInt("CANDLE_LIMIT", 120),
			WindowDuration: envDuration("MARKET_WINDOW", 15*time.Minute),
			PollInterval:   envDuration("POLL_INTERVAL", 5*time.Second),
		},
		Oracle: OracleConfig{
			BaseURL: envString("ORACLE_URL", "https://hermes.pyth.network"),
			Source:  envString("ORACLE_SOURCE", "pyth"),
		},
		Venue: VenueConfig{
			GammaURL:   envString("VENUE_GAMMA_URL", "https://gamma-api.polymarket.com"),
			ClobURL:    envString("VENUE_CLOB_URL", "https://clob.polymarket.com"),
			SlugPrefix: envString("VENUE_SLUG_PREFIX", "bitcoin-up-or-down"),
		},
		Scoring: ScoringConfig{
			VWAPDistanceWeight: envFloat("SCORE_VWAP_DISTANCE_WEIGHT", 0.10),
			VWAPSlopeWeight:    envFloat("SCORE_VWAP_SLOPE_WEIGHT", 0.08),
			RSIWeight:          envFloat("SCORE_RSI_WEIGHT", 0.12),
			MACDWeight:         envFloat("SCORE_MACD_WEIGHT", 0.08),
			MACDDeltaWeight:    envFloat("SCORE_MACD_DELTA_WEIGHT", 0.05),
			HeikenWeight:       envFloat("SCORE_HEIKEN_WEIGHT", 0.02),
			RegimeWeight:       envFloat("SCORE_REGIME_WEIGHT", 0.05),
			DecayFloor:         envFloat("SCORE_DECAY_FLOOR", 0.25),
		},
		Decision: DecisionConfig{
			MinEdge:        envFloat("DECISION_MIN_EDGE", 0.05),
			LateMinEdge:    envFloat("DECISION_LATE_MIN_EDGE", 0.15),
			StrongEdge:     envFloat("DECISION_STRONG_EDGE", 0.15),
			EarlyRemaining: envDuration("DECISION_EARLY_REMAINING", 10*time.Minute),
			LateRemaining:  envDuration("DECISION_LATE_REMAINING", 3*time.Minute),
		},
		Risk: RiskConfig{
			Enabled:        envBool("LIVE_TRADING_ENABLED", false),
			MinEdge:        envFloat("LIVE_MIN_EDGE", 0.10),
			EdgeFullScale:  envFloat("LIVE_EDGE_FULL_SCALE", 0.25),
			MaxOrderSize:   envFloat("LIVE_MAX_ORDER_SIZE", 50),
			Cooldown:       envDuration("LIVE_COOLDOWN", 5*time.Minute),
			DailyLossLimit: envFloat("LIVE_DAILY_LOSS_LIMIT", 100),
		},
		Paper: PaperConfig{
			Enabled:            envBool("PAPER_TRADING_ENABLED", true),
			StartingBalance:    envFloat("PAPER_STARTING_BALANCE", 1000),
			MinEdge:            envFloat("PAPER_MIN_EDGE", 0.10),
			MaxBalanceFraction: envFloat("PAPER_MAX_BALANCE_FRACTION", 0.05),
			Cooldown:           envDuration("PAPER_COOLDOWN", time.Minute),
			AutoResetThreshold: envFloat("PAPER_AUTO_RESET_THRESHOLD", 10),
		},
		LogLevel: envString("LOG_LEVEL", "info"),
	}, nil
}

// helper env(string) to string with default
func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// helper env(string) to int
func envInt(key string, fallback int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return i
}

// helper env(string) to float64
func envFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return f
}

// helper env(string) to bool
func envBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

// helper env(string) to duration
func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
