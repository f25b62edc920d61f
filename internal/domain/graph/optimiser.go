package graph

import (
	"math"

	"github.com/forge-industries/fleet-miner/internal/domain/shared"
)

// pair is the (f, df) state memoized per node during one step() pass,
// mirroring decision_tree.rs::step's (f64, f64) return.
type pair struct {
	f  float64
	df float64
}

const (
	maxIterations  = 10
	convergenceEps = 1e-6
)

// visitState tracks recursion-stack membership for cycle detection,
// in-progress, and done.
type visitState int

const (
	unvisited visitState = iota
	visiting
	done
)

// Result is the optimiser's output: the converged rate x* and the per-node
// (f, df) values computed at x*, so a decision node's best child can be
// recovered by re-comparing f values (see BestChild).
type Result struct {
	Rate  float64
	state map[int]pair
	g     *Graph
}

// Optimise runs Newton's method on F(x) = step(start, x).f until |F(x)| <
// 1e-6 or 10 iterations, following decision_tree.rs::evaluate. Returns
// *shared.GraphCyclicError if the graph is not a DAG reachable from start.
func Optimise(g *Graph) (*Result, error) {
	x := 0.0
	var state map[int]pair
	var err error

	for iter := 0; iter < maxIterations; iter++ {
		state = make(map[int]pair)
		visit := make(map[int]visitState)
		var f, df float64
		f, df, err = step(g, StartID, x, state, visit)
		if err != nil {
			return nil, err
		}

		if math.Abs(f) < convergenceEps {
			return &Result{Rate: x, state: state, g: g}, nil
		}
		if df == 0 {
			break
		}
		x -= f / df
	}

	return &Result{Rate: x, state: state, g: g}, nil
}

// step is the memoized recursive evaluator: terminal nodes are (0, 0),
// decision nodes take the best child by (f, df) lexicographic order,
// probability nodes take the weighted mean.
func step(g *Graph, id int, x0 float64, state map[int]pair, visit map[int]visitState) (float64, float64, error) {
	if p, ok := state[id]; ok {
		return p.f, p.df, nil
	}

	if visit[id] == visiting {
		return 0, 0, shared.NewGraphCyclicError("decision graph contains a cycle reachable from start")
	}

	edges := g.OutEdges(id)
	if len(edges) == 0 {
		state[id] = pair{0, 0}
		visit[id] = done
		return 0, 0, nil
	}

	visit[id] = visiting

	var retF, retT float64
	kind := edges[0].Kind

	switch kind {
	case KindDecision:
		maxF, maxDF := math.Inf(-1), math.Inf(-1)
		for _, e := range edges {
			repeats := float64(e.Repeats)
			g2, dg2, err := step(g, e.Target, x0, state, visit)
			if err != nil {
				return 0, 0, err
			}
			f := repeats*g2 + (e.Metric.Reward - x0*e.Metric.Time)
			df := repeats*dg2 - e.Metric.Time
			if f > maxF || (f == maxF && df > maxDF) {
				maxF, maxDF = f, df
			}
		}
		retF, retT = maxF, maxDF

	case KindProbability:
		var sumF, sumDF, weightSum float64
		for _, e := range edges {
			g2, dg2, err := step(g, e.Target, x0, state, visit)
			if err != nil {
				return 0, 0, err
			}
			f := g2 + (e.Metric.Reward - x0*e.Metric.Time)
			df := dg2 - e.Metric.Time
			sumF += f * e.Weight
			sumDF += df * e.Weight
			weightSum += e.Weight
		}
		if weightSum != 0 {
			retF, retT = sumF/weightSum, sumDF/weightSum
		}
	}

	state[id] = pair{retF, retT}
	visit[id] = done
	return retF, retT, nil
}

// BestChild returns the outgoing edge of a decision node that achieves the
// max (f, df) recorded by the last Optimise pass, re-deriving the
// comparison the same way step did. Only valid for decision nodes; panics
// on a probability node or a node with no outgoing edges.
func (r *Result) BestChild(id int) (Edge, bool) {
	edges := r.g.OutEdges(id)
	if len(edges) == 0 || edges[0].Kind != KindDecision {
		return Edge{}, false
	}
	var best Edge
	maxF, maxDF := math.Inf(-1), math.Inf(-1)
	for _, e := range edges {
		child, ok := r.state[e.Target]
		if !ok {
			continue
		}
		repeats := float64(e.Repeats)
		f := repeats*child.f + (e.Metric.Reward - r.Rate*e.Metric.Time)
		df := repeats*child.df - e.Metric.Time
		if f > maxF || (f == maxF && df > maxDF) {
			maxF, maxDF = f, df
			best = e
		}
	}
	return best, true
}

// NodeValue returns the (f, df) pair computed for node id during the last
// Optimise pass.
func (r *Result) NodeValue(id int) (f, df float64) {
	p := r.state[id]
	return p.f, p.df
}
