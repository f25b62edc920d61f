// Package graph builds the two-metric decision/probability DAG the mining
// planner reasons over: nodes are interned string labels, edges carry a
// (reward, time) metric plus either a decision repeat count or a
// probability weight. No pack library models this two-metric shape (the
// pack's one graph library, a Dijkstra shortest-path implementation, solves
// a single-metric problem and does not apply), so this package is authored
// directly against the standard library, following the original Rust
// decision_tree.rs/graph_builder usage.
package graph

import (
	"fmt"

	"github.com/forge-industries/fleet-miner/internal/domain/shared"
)

// Metric is the two-dimensional edge weight: reward accrued and time spent.
type Metric struct {
	Reward float64
	Time   float64
}

// Kind distinguishes a decision edge (the planner picks the best child) from
// a probability edge (a weighted average over children, e.g. survey deposit
// outcomes).
type Kind int

const (
	KindDecision Kind = iota
	KindProbability
)

// Edge is one outgoing arc from a node.
type Edge struct {
	Target  int
	Metric  Metric
	Kind    Kind
	Repeats int     // used when Kind == KindDecision; defaults to 1
	Weight  float64 // used when Kind == KindProbability
}

// Graph is a label-interned adjacency list. Label "start" is always id 0.
type Graph struct {
	labels   []string
	ids      map[string]int
	outEdges [][]Edge
}

// NewBuilder creates an empty graph with its start node pre-registered at id 0.
func NewBuilder() *Builder {
	b := &Builder{
		g: &Graph{
			ids: make(map[string]int),
		},
	}
	b.intern("start")
	return b
}

// Builder accumulates edges before Build validates and freezes the graph.
type Builder struct {
	g *Graph
}

func (b *Builder) intern(label string) int {
	if id, ok := b.g.ids[label]; ok {
		return id
	}
	id := len(b.g.labels)
	b.g.labels = append(b.g.labels, label)
	b.g.ids[label] = id
	b.g.outEdges = append(b.g.outEdges, nil)
	return id
}

// AddDecision adds a decision edge from-label -> to-label with the given
// reward/time metric and repeat count (1 for a plain decision).
func (b *Builder) AddDecision(from, to string, metric Metric, repeats int) {
	if repeats <= 0 {
		repeats = 1
	}
	fromID := b.intern(from)
	toID := b.intern(to)
	b.g.outEdges[fromID] = append(b.g.outEdges[fromID], Edge{
		Target: toID, Metric: metric, Kind: KindDecision, Repeats: repeats,
	})
}

// AddProbability adds a probability edge from-label -> to-label carrying the
// given reward/time metric and relative weight.
func (b *Builder) AddProbability(from, to string, metric Metric, weight float64) {
	fromID := b.intern(from)
	toID := b.intern(to)
	b.g.outEdges[fromID] = append(b.g.outEdges[fromID], Edge{
		Target: toID, Metric: metric, Kind: KindProbability, Weight: weight,
	})
}

// Build validates that every node's outgoing edges are homogeneous (all
// decision or all probability, never mixed) and returns the frozen graph.
func (b *Builder) Build() (*Graph, error) {
	for id, edges := range b.g.outEdges {
		if len(edges) == 0 {
			continue
		}
		kind := edges[0].Kind
		for _, e := range edges[1:] {
			if e.Kind != kind {
				return nil, shared.NewGraphShapeError(
					fmt.Sprintf("node %q mixes decision and probability edges", b.g.labels[id]))
			}
		}
	}
	return b.g, nil
}

// NodeID returns the interned id for label, or false if label was never
// registered.
func (g *Graph) NodeID(label string) (int, bool) {
	id, ok := g.ids[label]
	return id, ok
}

// Label returns the string label for an interned node id.
func (g *Graph) Label(id int) string {
	return g.labels[id]
}

// NodeCount returns the number of interned nodes.
func (g *Graph) NodeCount() int {
	return len(g.labels)
}

// OutEdges returns node id's outgoing edges, in insertion order.
func (g *Graph) OutEdges(id int) []Edge {
	return g.outEdges[id]
}

// OutDegree returns the number of outgoing edges of node id.
func (g *Graph) OutDegree(id int) int {
	return len(g.outEdges[id])
}

// StartID is the graph's pinned root node.
const StartID = 0
