package strategy

import (
	"time"

	"PredictionTradeBot/config"
	"PredictionTradeBot/internal/models"
)

// DecisionEngine maps (remaining time, edge, model probability) to a trade
// recommendation. It is a pure function of its inputs: no internal memory,
// identical inputs always produce identical decisions.
type DecisionEngine struct {
	cfg config.DecisionConfig
}

func NewDecisionEngine(cfg config.DecisionConfig) *DecisionEngine {
	return &DecisionEngine{cfg: cfg}
}

// Decide evaluates one cycle's signal. Missing edge or probability data is a
// HOLD, never an error.
func (e *DecisionEngine) Decide(remaining time.Duration, edge *models.EdgeResult, prob *models.ProbabilityEstimate) models.TradeDecision {
	phase := e.phase(remaining)
	hold := func(reason string) models.TradeDecision {
		return models.TradeDecision{Action: models.ActionHold, Phase: phase, Reason: reason}
	}

	if prob == nil {
		return hold("no probability estimate")
	}
	if edge == nil {
		return hold("no edge data")
	}
	if edge.EdgeUp == edge.EdgeDown {
		return hold("tied edges")
	}

	side, best := edge.Best()
	if best <= 0 {
		return hold("no positive edge")
	}
	if best < e.cfg.MinEdge {
		return hold("edge below minimum")
	}
	if phase == models.PhaseLate && best < e.cfg.LateMinEdge {
		return hold("edge below late-phase minimum")
	}

	strength := models.StrengthGood
	if best >= e.cfg.StrongEdge {
		strength = models.StrengthStrong
	}

	return models.TradeDecision{
		Action:   models.ActionEnter,
		Side:     side,
		Strength: strength,
		Phase:    phase,
	}
}

func (e *DecisionEngine) phase(remaining time.Duration) string {
	switch {
	case remaining > e.cfg.EarlyRemaining:
		return models.PhaseEarly
	case remaining <= e.cfg.LateRemaining:
		return models.PhaseLate
	default:
		return models.PhaseMid
	}
}
