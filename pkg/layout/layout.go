// Package layout computes hierarchical positions for the graph view.
//
// The algorithm is the classic layered approach: rank nodes into layers by
// longest path over the ranking edges, order each layer by barycenter sweeps
// to reduce crossings, then map (layer, order) onto a fixed grid. "blocks"
// edges are the primary ordering signal: only they decide layering, while
// every edge participates in the in-layer ordering.
//
// Layout is deterministic by construction: no randomness, a fixed sweep
// count, and id tiebreaks everywhere, so two runs over the same view and
// direction produce identical coordinates. Prior node positions are never
// consulted.
package layout

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/flow"
	"github.com/opsdeck/opsdeck/pkg/observability"
	"github.com/opsdeck/opsdeck/pkg/rel"
)

// Direction selects the axis layers grow along.
type Direction string

const (
	// DirectionLR grows layers left to right.
	DirectionLR Direction = "LR"
	// DirectionTB grows layers top to bottom.
	DirectionTB Direction = "TB"
)

// Valid reports whether d is a supported direction.
func (d Direction) Valid() bool { return d == DirectionLR || d == DirectionTB }

// Grid constants. Spacing is distance between layer/order slots; margin
// offsets the whole graph from the canvas origin.
const (
	spacingLayer = 260.0
	spacingOrder = 140.0
	marginX      = 40.0
	marginY      = 40.0
)

// Compute returns repositioned copies of the view's nodes. The input view is
// not modified and unplaced entities (absent from view.Nodes) are never
// touched. An empty node set yields an empty result.
func Compute(view *flow.View, dir Direction) ([]flow.Node, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("unsupported layout direction %q", dir)
	}

	g := newDigraph()
	for _, n := range view.Nodes {
		g.addNode(n.ID)
	}

	// Ranking: blocks edges only.
	for _, e := range view.Edges {
		if e.Kind == rel.KindBlocks {
			g.addEdge(e.Source, e.Target)
		}
	}
	g.assignLayers()

	// Ordering: every edge pulls its endpoints together.
	neighbors := make(map[string][]string, len(view.Nodes))
	for _, e := range view.Edges {
		neighbors[e.Source] = append(neighbors[e.Source], e.Target)
		neighbors[e.Target] = append(neighbors[e.Target], e.Source)
	}
	order := g.orderLayers(neighbors)

	positioned := make([]flow.Node, 0, len(view.Nodes))
	byID := make(map[string]flow.Node, len(view.Nodes))
	for _, n := range view.Nodes {
		byID[n.ID] = n
	}

	for layer, ids := range order {
		for slot, id := range ids {
			n := byID[id]
			switch dir {
			case DirectionLR:
				n.X = marginX + float64(layer)*spacingLayer
				n.Y = marginY + float64(slot)*spacingOrder
			case DirectionTB:
				n.X = marginX + float64(slot)*spacingLayer
				n.Y = marginY + float64(layer)*spacingOrder
			}
			positioned = append(positioned, n)
		}
	}

	// Deterministic output order regardless of map iteration.
	sortNodesByID(positioned)
	return positioned, nil
}

// Engine computes layouts and persists the resulting positions back to the
// entity repositories, one write per node whose coordinates changed.
type Engine struct {
	repos *entity.Registry
}

// NewEngine creates an engine writing through the given repositories.
func NewEngine(repos *entity.Registry) *Engine {
	return &Engine{repos: repos}
}

// Run lays out the view and persists every changed position. Returns the
// number of repositioned nodes. Writes are independent: a failure leaves
// earlier writes committed and aborts the rest.
func (e *Engine) Run(ctx context.Context, view *flow.View, dir Direction) (int, error) {
	start := time.Now()
	observability.Layout().OnLayoutStart(ctx, string(dir), len(view.Nodes))

	positioned, err := Compute(view, dir)
	if err != nil {
		observability.Layout().OnLayoutComplete(ctx, string(dir), 0, time.Since(start), err)
		return 0, err
	}

	current := make(map[string]flow.Node, len(view.Nodes))
	for _, n := range view.Nodes {
		current[n.ID] = n
	}

	repositioned := 0
	for _, n := range positioned {
		old := current[n.ID]
		if old.X == n.X && old.Y == n.Y {
			continue
		}
		repo, err := e.repos.For(n.Ref.Type)
		if err != nil {
			observability.Layout().OnLayoutComplete(ctx, string(dir), repositioned, time.Since(start), err)
			return repositioned, err
		}
		if _, err := repo.Update(ctx, n.Ref.ID, entity.Fields{
			entity.FieldFlowX: n.X,
			entity.FieldFlowY: n.Y,
		}); err != nil {
			observability.Layout().OnLayoutComplete(ctx, string(dir), repositioned, time.Since(start), err)
			return repositioned, fmt.Errorf("persisting position for %s: %w", n.ID, err)
		}
		repositioned++
	}

	observability.Layout().OnLayoutComplete(ctx, string(dir), repositioned, time.Since(start), nil)
	return repositioned, nil
}

func sortNodesByID(nodes []flow.Node) {
	slices.SortFunc(nodes, func(a, b flow.Node) int {
		return strings.Compare(a.ID, b.ID)
	})
}
