package mining

import "math"

// JudgeSurvey evaluates a freshly drawn real survey's deposits against the
// plan's precomputed per-cargo (f, df) values, without rebuilding the graph:
// it compares a 10x-repeated extract branch to the finish (discard) branch
// at x*, the same lexicographic tie-break the optimiser uses.
func (p *Plan) JudgeSurvey(deposits []string) bool {
	extractDuration := p.ExtractCooldown

	var sumF, sumDF, weightSum float64
	for _, symbol := range deposits {
		g, dg, ok := p.NodeValue(cargoNode(symbol, false))
		if !ok {
			continue
		}
		f := g + (0 - p.Rate()*extractDuration)
		df := dg - extractDuration
		sumF += f
		sumDF += df
		weightSum++
	}
	if weightSum == 0 {
		return false
	}
	fB, dfB := sumF/weightSum, sumDF/weightSum

	finishF, finishDF, _ := p.NodeValue("finish")

	// branch A: extract_survey_x, repeated expectedNumExtracts times
	aF := expectedNumExtracts*fB + (0 - p.Rate()*0)
	aDF := expectedNumExtracts*dfB - 0

	// branch B: finish (discard)
	bF := finishF + (0 - p.Rate()*0)
	bDF := finishDF - 0

	if aF > bF || (aF == bF && aDF > bDF) {
		return true
	}
	return false
}

// EffectiveRate reports the credits-per-second implied by (f, df) at x*,
// matching the debug logging in the original implementation: x* - f/df.
func (p *Plan) EffectiveRate(label string) (rate float64, seconds float64, ok bool) {
	f, df, ok := p.NodeValue(label)
	if !ok || df == 0 {
		return 0, 0, false
	}
	if math.IsNaN(f / df) {
		return 0, 0, false
	}
	return p.Rate() - f/df, -df, true
}
