package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOptimiseConverges mirrors decision_tree.rs's graph0 test: two leaf
// decisions from start, the optimiser should pick the higher-reward edge and
// converge F(x*) to within the spec's epsilon.
func TestOptimiseConverges(t *testing.T) {
	b := NewBuilder()
	b.AddDecision("start", "a", Metric{Reward: 1.0, Time: 1.0}, 1)
	b.AddDecision("start", "b", Metric{Reward: 3.0, Time: 2.0}, 1)
	g, err := b.Build()
	require.NoError(t, err)

	result, err := Optimise(g)
	require.NoError(t, err)

	f, _ := result.NodeValue(StartID)
	assert.Less(t, math.Abs(f), 1e-6)
}

// TestOptimiseBestChildIsOptimal checks that no sibling of the chosen best
// child scores strictly higher at the converged rate, per the §8 decision
// node optimality property.
func TestOptimiseBestChildIsOptimal(t *testing.T) {
	b := NewBuilder()
	b.AddDecision("start", "a", Metric{Reward: 1.0, Time: 1.0}, 1)
	b.AddDecision("start", "b", Metric{Reward: 3.0, Time: 2.0}, 1)
	b.AddDecision("start", "c", Metric{Reward: 2.0, Time: 3.0}, 1)
	g, err := b.Build()
	require.NoError(t, err)

	result, err := Optimise(g)
	require.NoError(t, err)

	best, ok := result.BestChild(StartID)
	require.True(t, ok)

	bestF := best.Metric.Reward - result.Rate*best.Metric.Time
	for _, e := range g.OutEdges(StartID) {
		f := e.Metric.Reward - result.Rate*e.Metric.Time
		assert.LessOrEqual(t, f, bestF+1e-9)
	}
}

func TestOptimiseProbabilityWeightedMean(t *testing.T) {
	b := NewBuilder()
	b.AddProbability("start", "a", Metric{Reward: 1.0, Time: 1.0}, 1.0)
	b.AddProbability("start", "b", Metric{Reward: 3.0, Time: 2.0}, 3.0)
	g, err := b.Build()
	require.NoError(t, err)

	result, err := Optimise(g)
	require.NoError(t, err)

	f, _ := result.NodeValue(StartID)
	assert.Less(t, math.Abs(f), 1e-6)
}

// TestOptimiseRejectsCycle exercises the §8 "graph cycle rejected" scenario.
func TestOptimiseRejectsCycle(t *testing.T) {
	b := NewBuilder()
	b.AddDecision("start", "a", Metric{Reward: 1.0, Time: 1.0}, 1)
	b.AddDecision("a", "start", Metric{Reward: 1.0, Time: 1.0}, 1)
	g, err := b.Build()
	require.NoError(t, err)

	_, err = Optimise(g)
	require.Error(t, err)
}
