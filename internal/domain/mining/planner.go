package mining

import (
	"fmt"
	"math/rand/v2"

	"github.com/forge-industries/fleet-miner/internal/domain/graph"
	"github.com/forge-industries/fleet-miner/internal/domain/market"
	"github.com/forge-industries/fleet-miner/internal/domain/navigation"
)

// Plan is a built mining decision graph plus the optimiser's result and the
// derived cooldown/strength parameters the executor and judge need.
type Plan struct {
	Graph               *graph.Graph
	Result              *graph.Result
	ExtractCooldown     float64
	SurveyorCooldown    float64
	SurveysPerOperation float64
	MiningStrength      float64
}

// Rate returns the converged credits-per-second x* of the full mining loop.
func (p *Plan) Rate() float64 {
	return p.Result.Rate
}

// StartSuccessor returns the label of the best child of "start" (either
// "extract" or "survey").
func (p *Plan) StartSuccessor() (string, bool) {
	return p.bestChildLabel("start")
}

// NodeSuccessor returns the label of the best child of the given decision
// node, e.g. a "cargo_SYMBOL" node's choice between "finish" and a
// "sell_MARKET" node.
func (p *Plan) NodeSuccessor(label string) (string, bool) {
	return p.bestChildLabel(label)
}

func (p *Plan) bestChildLabel(label string) (string, bool) {
	id, ok := p.Graph.NodeID(label)
	if !ok {
		return "", false
	}
	edge, ok := p.Result.BestChild(id)
	if !ok {
		return "", false
	}
	return p.Graph.Label(edge.Target), true
}

// NodeValue returns the precomputed (f, df) at a node label, used by the
// online survey judge.
func (p *Plan) NodeValue(label string) (f, df float64, ok bool) {
	id, ok := p.Graph.NodeID(label)
	if !ok {
		return 0, 0, false
	}
	f, df = p.Result.NodeValue(id)
	return f, df, true
}

// BuildPlan constructs the §4.C decision graph for one asteroid/ship
// combination and returns its optimised Plan. rng drives the Monte-Carlo
// survey sample; pass a seeded *rand.Rand for deterministic tests.
func BuildPlan(asteroidSymbol string, asteroidTraits []string, markets []*market.Market, mounts []*navigation.Mount, rng *rand.Rand) (*Plan, error) {
	deposits := AsteroidYields(asteroidTraits)
	isStripped := containsTrait(asteroidTraits, "STRIPPED")

	extractCooldown := baseExtractCooldown
	surveyorCooldown := baseSurveyorCooldown
	miningStrength := 0.0
	var surveyors []Surveyor
	surveysPerOperation := 0.0

	for _, mount := range mounts {
		if mount.IsMiningLaser() {
			extractCooldown += 10.0 * float64(mount.Power())
			miningStrength += float64(mount.Strength())
		}
		if mount.IsSurveyor() {
			surveyorCooldown += 10.0 * float64(mount.Power())
			var intersection []string
			for symbol := range deposits {
				if containsTrait(mount.Deposits(), symbol) {
					intersection = append(intersection, symbol)
				}
			}
			surveyors = append(surveyors, Surveyor{Strength: mount.Strength(), Deposits: intersection})
			surveysPerOperation += float64(mount.Strength())
		}
	}

	b := graph.NewBuilder()

	// 1. start -> extract
	b.AddDecision("start", "extract", graph.Metric{}, 1)

	// 2. extract -> cargo_d[_stripped], probability weighted by deposit weight.
	for symbol, weight := range deposits {
		node := cargoNode(symbol, isStripped)
		b.AddProbability("extract", node, graph.Metric{Time: extractCooldown}, float64(weight))
	}

	// 3. cargo_d (and stripped variant) -> finish (jettison) and -> sell_m for
	// every market offering the deposit.
	for symbol := range deposits {
		addCargoEdges(b, symbol, asteroidSymbol, markets, miningStrength, false)
		addCargoEdges(b, symbol, asteroidSymbol, markets, miningStrength, true)
	}

	// 4. start -> survey
	b.AddDecision("start", "survey", graph.Metric{}, 1)

	// 5. Monte-Carlo sample surveys.
	samples := SampleSurveys(surveyors, rng)

	// 6. survey -> survey_i -> {finish, extract_survey_i -> cargo_dj}.
	for i, sample := range samples {
		surveyNode := fmt.Sprintf("survey_%d", i)
		extractSurveyNode := fmt.Sprintf("extract_survey_%d", i)

		duration := 0.0
		if surveysPerOperation > 0 {
			duration = surveyorCooldown / surveysPerOperation
		}
		b.AddProbability("survey", surveyNode, graph.Metric{Time: duration}, 1.0)
		b.AddDecision(surveyNode, "finish", graph.Metric{}, 1)
		b.AddDecision(surveyNode, extractSurveyNode, graph.Metric{}, expectedNumExtracts)

		for _, depositSymbol := range sample {
			b.AddProbability(extractSurveyNode, cargoNode(depositSymbol, false), graph.Metric{Time: extractCooldown}, 1.0)
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, err
	}

	result, err := graph.Optimise(g)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Graph:               g,
		Result:              result,
		ExtractCooldown:     extractCooldown,
		SurveyorCooldown:    surveyorCooldown,
		SurveysPerOperation: surveysPerOperation,
		MiningStrength:      miningStrength,
	}, nil
}

func addCargoEdges(b *graph.Builder, symbol, asteroidSymbol string, markets []*market.Market, miningStrength float64, stripped bool) {
	cargoNode := cargoNode(symbol, stripped)

	// jettison
	b.AddDecision(cargoNode, "finish", graph.Metric{}, 1)

	for _, m := range markets {
		sellPrice, offered := m.SellPriceFor(symbol)
		if !offered {
			continue
		}
		sellNode := "sell_" + m.WaypointSymbol

		profit := float64(sellPrice) * miningStrength
		if stripped {
			profit /= 2.0
		}
		duration := 0.0
		if m.WaypointSymbol != asteroidSymbol {
			duration = offSiteTravelTime
			profit -= offSiteFuelCost
		}

		b.AddDecision(cargoNode, sellNode, graph.Metric{Reward: profit, Time: duration}, 1)
		b.AddDecision(sellNode, "finish", graph.Metric{}, 1)
	}
}

func cargoNode(symbol string, stripped bool) string {
	return CargoNode(symbol, stripped)
}

// CargoNode renders the decision-graph label for holding symbol in cargo,
// used by the executor to look up a ship's current cargo state in the plan.
func CargoNode(symbol string, stripped bool) string {
	if stripped {
		return fmt.Sprintf("cargo_%s_stripped", symbol)
	}
	return fmt.Sprintf("cargo_%s", symbol)
}

func containsTrait(haystack []string, needle string) bool {
	for _, t := range haystack {
		if t == needle {
			return true
		}
	}
	return false
}
