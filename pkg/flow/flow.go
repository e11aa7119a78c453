// Package flow derives the renderable graph view from storage.
//
// A node exists for exactly the entities that carry a placement; an edge
// exists for exactly the links whose endpoints are both placed. Nothing in
// this package is persisted: clearing a placement suppresses edges visually
// but the underlying links stay in the relationship store untouched.
//
// Rebuild is a full O(entities + links) re-derivation rather than an
// incremental diff, which is fine at the scale of hundreds of entities.
// TODO(scale): patch the view incrementally by entity id once consoles grow
// past a few thousand records.
package flow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/observability"
	"github.com/opsdeck/opsdeck/pkg/rel"
)

// Node is a placed entity on the graph canvas. Ephemeral; derived on every
// rebuild and never stored.
type Node struct {
	ID    string     `json:"id"`
	Ref   entity.Ref `json:"ref"`
	Title string     `json:"title"`
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
}

// Edge is a rendered relationship between two placed nodes.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   rel.Kind `json:"relationship"`
	Style  Style    `json:"style"`
}

// View is one consistent derivation of the graph: placed nodes, visible
// edges, and the backlog of unplaced entities.
type View struct {
	Nodes   []Node           `json:"nodes"`
	Edges   []Edge           `json:"edges"`
	Backlog []*entity.Record `json:"backlog"`
}

// Node returns the node with the given id.
func (v *View) Node(id string) (Node, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EdgeID builds the deterministic edge identifier for a relationship between
// two canvas nodes. Optimistic edges created during a gesture and edges
// re-derived after the write round-trips produce the same id, so
// reconciliation overwrites instead of duplicating.
func EdgeID(kind rel.Kind, sourceNodeID, targetNodeID string) string {
	return fmt.Sprintf("%s-%s-%s", kind, sourceNodeID, targetNodeID)
}

// Synchronizer rebuilds the view from the entity repositories and the
// relationship store.
type Synchronizer struct {
	repos *entity.Registry
	links rel.Store
}

// NewSynchronizer creates a synchronizer over the given sources.
func NewSynchronizer(repos *entity.Registry, links rel.Store) *Synchronizer {
	return &Synchronizer{repos: repos, links: links}
}

// Rebuild derives a fresh view. Nodes are emitted for placed entities,
// edges for links with both endpoints placed, and everything else lands in
// the backlog. Output ordering is deterministic (sorted by node and edge id)
// so repeated rebuilds of unchanged data are identical.
func (s *Synchronizer) Rebuild(ctx context.Context) (*View, error) {
	start := time.Now()

	view := &View{
		Nodes:   []Node{},
		Edges:   []Edge{},
		Backlog: []*entity.Record{},
	}
	placed := make(map[string]bool)

	for _, t := range s.repos.Types() {
		repo, err := s.repos.For(t)
		if err != nil {
			return nil, err
		}
		records, err := repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", t, err)
		}
		for _, rec := range records {
			if !rec.Placed() {
				view.Backlog = append(view.Backlog, rec)
				continue
			}
			node := Node{
				ID:    rec.Ref().NodeID(),
				Ref:   rec.Ref(),
				Title: rec.Title,
				X:     *rec.FlowX,
				Y:     *rec.FlowY,
			}
			view.Nodes = append(view.Nodes, node)
			placed[node.ID] = true
		}
	}

	links, err := s.links.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	for _, l := range links {
		sourceID := l.Source.NodeID()
		targetID := l.Target.NodeID()
		if !placed[sourceID] || !placed[targetID] {
			continue // link survives, edge is suppressed
		}
		view.Edges = append(view.Edges, Edge{
			ID:     EdgeID(l.Kind, sourceID, targetID),
			Source: sourceID,
			Target: targetID,
			Kind:   l.Kind,
			Style:  EdgeStyle(l.Kind),
		})
	}

	sort.Slice(view.Nodes, func(i, j int) bool { return view.Nodes[i].ID < view.Nodes[j].ID })
	sort.Slice(view.Edges, func(i, j int) bool { return view.Edges[i].ID < view.Edges[j].ID })
	sort.Slice(view.Backlog, func(i, j int) bool {
		return view.Backlog[i].Ref().NodeID() < view.Backlog[j].Ref().NodeID()
	})

	observability.Sync().OnRebuild(ctx, len(view.Nodes), len(view.Edges), len(view.Backlog), time.Since(start))
	return view, nil
}

// Place assigns coordinates to an entity, adding it to the graph on the
// next rebuild. Used for drops onto the canvas and manual node drags.
func (s *Synchronizer) Place(ctx context.Context, ref entity.Ref, x, y float64) error {
	repo, err := s.repos.For(ref.Type)
	if err != nil {
		return err
	}
	_, err = repo.Update(ctx, ref.ID, entity.Fields{
		entity.FieldFlowX: x,
		entity.FieldFlowY: y,
	})
	return err
}

// Unplace clears an entity's coordinates, returning it to the backlog.
// The entity record and its links are untouched.
func (s *Synchronizer) Unplace(ctx context.Context, ref entity.Ref) error {
	repo, err := s.repos.For(ref.Type)
	if err != nil {
		return err
	}
	_, err = repo.Update(ctx, ref.ID, entity.Fields{
		entity.FieldFlowX: nil,
		entity.FieldFlowY: nil,
	})
	return err
}
