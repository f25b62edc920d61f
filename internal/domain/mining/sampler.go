package mining

import "math/rand/v2"

// Surveyor is one installed surveyor mount's contribution to the sample:
// its strength (surveys drawn per sampling pass) and the deposits it can
// detect, restricted to this asteroid's yields.
type Surveyor struct {
	Strength int
	Deposits []string
}

// minSampleSurveys is the §4.C.5 sampling floor: Monte-Carlo sampling
// continues until at least this many surveys have accumulated.
const minSampleSurveys = 10_000

// SampleSurveys draws a Monte-Carlo sample of surveys: repeatedly, for each
// surveyor, draws `strength` surveys of 3-7 deposits each, weighted by
// YieldWeights, until at least minSampleSurveys have accumulated.
func SampleSurveys(surveyors []Surveyor, rng *rand.Rand) [][]string {
	var samples [][]string
	for len(samples) < minSampleSurveys {
		for _, surveyor := range surveyors {
			for i := 0; i < surveyor.Strength; i++ {
				samples = append(samples, sampleOneSurvey(surveyor.Deposits, rng))
			}
		}
		if len(surveyors) == 0 {
			break
		}
	}
	return samples
}

func sampleOneSurvey(deposits []string, rng *rand.Rand) []string {
	numDeposits := 3 + rng.IntN(5) // uniform in [3, 7]
	survey := make([]string, numDeposits)
	for i := range survey {
		survey[i] = weightedChoice(deposits, rng)
	}
	return survey
}

// weightedChoice picks one deposit symbol from candidates with probability
// proportional to its YieldWeights entry.
func weightedChoice(candidates []string, rng *rand.Rand) string {
	total := 0
	for _, c := range candidates {
		total += YieldWeights[c]
	}
	if total == 0 {
		return candidates[rng.IntN(len(candidates))]
	}
	r := rng.IntN(total)
	for _, c := range candidates {
		r -= YieldWeights[c]
		if r < 0 {
			return c
		}
	}
	return candidates[len(candidates)-1]
}
