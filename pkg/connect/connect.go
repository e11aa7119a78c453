// Package connect turns a "draw a line between two nodes" gesture into a
// confirmed, typed relationship write.
//
// The workflow is a small state machine: IDLE until a gesture arrives,
// PENDING while the user picks a semantic, back to IDLE once resolved or
// cancelled. Entering PENDING never touches the relationship store; the UI
// may render the provisional edge, visibly unconfirmed, and discard it on
// cancel. Committed edges get deterministic ids so the optimistic edge and
// the re-derived one reconcile instead of duplicating.
package connect

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/flow"
	"github.com/opsdeck/opsdeck/pkg/rel"
)

// State of the workflow.
type State int

const (
	// StateIdle means no connection gesture is in flight.
	StateIdle State = iota
	// StatePending means a gesture awaits the user's semantic choice.
	StatePending
)

// Choice is the semantic the user picks for a pending connection.
type Choice string

const (
	// ChoiceBlocks makes the gesture's source block its target.
	ChoiceBlocks Choice = "blocks"
	// ChoiceReverseBlocks inverts the direction: the target blocks the source.
	ChoiceReverseBlocks Choice = "reverse-blocks"
	// ChoiceRelated stores a bidirectional relates_to pair so either
	// endpoint's queries surface the relationship.
	ChoiceRelated Choice = "related"
	// ChoiceCancel discards the gesture without writing.
	ChoiceCancel Choice = "cancel"
)

// Workflow errors.
var (
	// ErrNotPending is returned by Resolve with no gesture in flight.
	ErrNotPending = errors.New("no pending connection")

	// ErrAlreadyPending is returned by Begin while a gesture is unresolved.
	ErrAlreadyPending = errors.New("a connection is already pending")

	// ErrUnknownChoice is returned by Resolve for a choice it does not know.
	ErrUnknownChoice = errors.New("unknown connection choice")

	// ErrSelfConnection is returned by Begin when both endpoints are the
	// same entity.
	ErrSelfConnection = errors.New("cannot connect an entity to itself")
)

// Workflow drives one connection gesture at a time.
// Safe for concurrent use; a second Begin while pending fails rather than
// silently replacing the first gesture.
type Workflow struct {
	mu     sync.Mutex
	state  State
	source entity.Ref
	target entity.Ref
	links  rel.Store
}

// New creates an idle workflow committing through the given store.
func New(links rel.Store) *Workflow {
	return &Workflow{links: links}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Begin records a drawn line from source to target and moves to PENDING.
// No store mutation happens here.
func (w *Workflow) Begin(source, target entity.Ref) error {
	if source == target {
		return ErrSelfConnection
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StatePending {
		return ErrAlreadyPending
	}
	w.state = StatePending
	w.source = source
	w.target = target
	return nil
}

// Pending returns the gesture's endpoints while a connection is pending.
func (w *Workflow) Pending() (source, target entity.Ref, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StatePending {
		return entity.Ref{}, entity.Ref{}, false
	}
	return w.source, w.target, true
}

// ProvisionalEdge returns the unconfirmed edge the UI may render while the
// choice is open. It is visually distinct (dashed, "pending" prefix) so it
// can never be mistaken for, or collide with, a committed edge.
func (w *Workflow) ProvisionalEdge() (flow.Edge, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StatePending {
		return flow.Edge{}, false
	}
	sourceID := w.source.NodeID()
	targetID := w.target.NodeID()
	return flow.Edge{
		ID:     fmt.Sprintf("pending-%s-%s", sourceID, targetID),
		Source: sourceID,
		Target: targetID,
		Kind:   rel.KindRelatesTo,
		Style:  flow.Style{Color: "#8a919d", Dashed: true, Label: "?"},
	}, true
}

// Resolve commits the pending gesture with the chosen semantic and returns
// the ids of the created links (empty for cancel). The workflow returns to
// IDLE whatever the outcome; on a store failure the gesture is dropped and
// the intended links simply do not exist.
func (w *Workflow) Resolve(ctx context.Context, choice Choice) ([]int64, error) {
	w.mu.Lock()
	if w.state != StatePending {
		w.mu.Unlock()
		return nil, ErrNotPending
	}
	source, target := w.source, w.target
	w.state = StateIdle
	w.source, w.target = entity.Ref{}, entity.Ref{}
	w.mu.Unlock()

	switch choice {
	case ChoiceCancel:
		return nil, nil

	case ChoiceBlocks:
		id, err := w.links.Link(ctx, source, target, rel.KindBlocks)
		if err != nil {
			return nil, fmt.Errorf("committing blocks link: %w", err)
		}
		return []int64{id}, nil

	case ChoiceReverseBlocks:
		id, err := w.links.Link(ctx, target, source, rel.KindBlocks)
		if err != nil {
			return nil, fmt.Errorf("committing reverse blocks link: %w", err)
		}
		return []int64{id}, nil

	case ChoiceRelated:
		forward, err := w.links.Link(ctx, source, target, rel.KindRelatesTo)
		if err != nil {
			return nil, fmt.Errorf("committing related link: %w", err)
		}
		backward, err := w.links.Link(ctx, target, source, rel.KindRelatesTo)
		if err != nil {
			// The forward link is committed and stays; see the known
			// limitation on non-transactional multi-step actions.
			return []int64{forward}, fmt.Errorf("committing reverse related link: %w", err)
		}
		return []int64{forward, backward}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChoice, choice)
	}
}

// CommittedEdgeID returns the deterministic edge id the graph view will
// derive for the committed gesture, letting the UI swap its optimistic edge
// in place before the next rebuild.
func CommittedEdgeID(choice Choice, source, target entity.Ref) (string, bool) {
	switch choice {
	case ChoiceBlocks:
		return flow.EdgeID(rel.KindBlocks, source.NodeID(), target.NodeID()), true
	case ChoiceReverseBlocks:
		return flow.EdgeID(rel.KindBlocks, target.NodeID(), source.NodeID()), true
	case ChoiceRelated:
		return flow.EdgeID(rel.KindRelatesTo, source.NodeID(), target.NodeID()), true
	}
	return "", false
}
