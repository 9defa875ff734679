package paper

import "PredictionTradeBot/internal/models"

// Stats transitions are pure (old stats + event -> new stats) so settlement
// bookkeeping is testable without a clock or storage.

// applyEntry records a new trade against the stats.
func applyEntry(stats models.PaperStats, cost float64) models.PaperStats {
	stats.Trades++
	stats.TotalWagered += cost
	return stats
}

// applySettlement records one settled position. Streak sign convention:
// positive for consecutive wins, negative for consecutive losses.
func applySettlement(stats models.PaperStats, won bool, pnl, payout float64) models.PaperStats {
	stats.TotalPnL += pnl
	stats.GrossPayout += payout

	if won {
		stats.Wins++
		if stats.CurrentStreak > 0 {
			stats.CurrentStreak++
		} else {
			stats.CurrentStreak = 1
		}
		if stats.CurrentStreak > stats.BestStreak {
			stats.BestStreak = stats.CurrentStreak
		}
	} else {
		stats.Losses++
		if stats.CurrentStreak < 0 {
			stats.CurrentStreak--
		} else {
			stats.CurrentStreak = -1
		}
		if stats.CurrentStreak < stats.WorstStreak {
			stats.WorstStreak = stats.CurrentStreak
		}
	}
	return stats
}

// foldStats accumulates a closed session's stats into the lifetime totals.
// Lifetime streak extremes keep the best and worst ever seen; the running
// streak does not carry across sessions.
func foldStats(lifetime, session models.PaperStats) models.PaperStats {
	lifetime.Trades += session.Trades
	lifetime.Wins += session.Wins
	lifetime.Losses += session.Losses
	lifetime.TotalPnL += session.TotalPnL
	lifetime.TotalWagered += session.TotalWagered
	lifetime.GrossPayout += session.GrossPayout
	if session.BestStreak > lifetime.BestStreak {
		lifetime.BestStreak = session.BestStreak
	}
	if session.WorstStreak < lifetime.WorstStreak {
		lifetime.WorstStreak = session.WorstStreak
	}
	lifetime.CurrentStreak = 0
	return lifetime
}
