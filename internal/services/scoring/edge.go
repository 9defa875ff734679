package scoring

import "PredictionTradeBot/internal/models"

// EdgeCalculator compares model probability to market-implied probability.
type EdgeCalculator struct{}

func NewEdgeCalculator() *EdgeCalculator {
	return &EdgeCalculator{}
}

// Calculate returns the signed edge per side, or nil whenever any operand is
// missing. Partial edges are never reported.
func (c *EdgeCalculator) Calculate(prob *models.ProbabilityEstimate, impliedUp, impliedDown *float64) *models.EdgeResult {
	if prob == nil || impliedUp == nil || impliedDown == nil {
		return nil
	}
	return &models.EdgeResult{
		EdgeUp:   prob.AdjustedUp - *impliedUp,
		EdgeDown: prob.AdjustedDown - *impliedDown,
	}
}
