// Package entity defines the shared entity model for the operations console.
//
// Every trackable record (project, goal, routine, asset, task, ...) is
// identified by a Ref, a (type, id) pair that is unique regardless of which
// table the record lives in. The rest of the system treats entities as
// mostly opaque: the only fields this package models are the ones the graph
// view, the scheduler, and the transport router actually read or write.
//
// Placement is stored on the entity record itself (FlowX/FlowY). An entity
// without a placement is "unplaced" and lives in the backlog rather than on
// the graph canvas.
package entity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Type identifies an entity kind. The set is open: new kinds can be added
// without touching this package, but the constants below cover everything
// the console currently stores.
type Type string

const (
	TypeProject   Type = "project"
	TypeGoal      Type = "goal"
	TypeRoutine   Type = "routine"
	TypeAsset     Type = "asset"
	TypeTask      Type = "task"
	TypeInventory Type = "inventory"
	TypeWork      Type = "work"
)

// Types lists the entity kinds with a backing repository, in stable order.
func Types() []Type {
	return []Type{TypeProject, TypeGoal, TypeRoutine, TypeAsset, TypeTask, TypeInventory, TypeWork}
}

// Ref uniquely identifies an entity across all repositories.
type Ref struct {
	Type Type  `json:"type"`
	ID   int64 `json:"id"`
}

// NodeID returns the canvas node identifier for the entity.
// The format "<type>-<id>" is shared with the graph synchronizer and the
// connection workflow so that derived and optimistic nodes agree.
func (r Ref) NodeID() string {
	return fmt.Sprintf("%s-%d", r.Type, r.ID)
}

// String implements fmt.Stringer.
func (r Ref) String() string { return r.NodeID() }

// Zero reports whether the ref is the zero value.
func (r Ref) Zero() bool { return r.Type == "" && r.ID == 0 }

// Record is the slice of an entity row this subsystem cares about.
// Fields not listed here (descriptions, status, cost, ...) belong to the
// CRUD layer and never cross into the graph or transport code.
type Record struct {
	ID    int64  `json:"id"`
	Type  Type   `json:"type"`
	Title string `json:"title"`

	// Placement on the graph canvas. Both nil means unplaced.
	FlowX *float64 `json:"flow_x,omitempty"`
	FlowY *float64 `json:"flow_y,omitempty"`

	// Scheduling fields written by calendar drops.
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	ScheduledTime string     `json:"scheduled_time,omitempty"`

	// ProjectIDs is the project-association collection on assets.
	ProjectIDs []int64 `json:"project_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Ref returns the entity reference for the record.
func (e *Record) Ref() Ref { return Ref{Type: e.Type, ID: e.ID} }

// Placed reports whether the record has graph coordinates.
func (e *Record) Placed() bool { return e.FlowX != nil && e.FlowY != nil }

// Fields is a partial update: column name to new value. A nil value clears
// the column. Recognized keys are the FieldX constants below; repositories
// reject anything else so typos fail loudly instead of writing nothing.
type Fields map[string]any

// Field keys accepted by Repository.Update.
const (
	FieldTitle         = "title"
	FieldFlowX         = "flow_x"
	FieldFlowY         = "flow_y"
	FieldScheduledDate = "scheduled_date"
	FieldScheduledTime = "scheduled_time"
	FieldProjectIDs    = "project_ids"
)

// Sentinel errors shared by repository implementations.
var (
	// ErrNotFound is returned when no entity exists for the given id.
	ErrNotFound = errors.New("entity not found")

	// ErrUnknownField is returned by Update for an unrecognized field key.
	ErrUnknownField = errors.New("unknown update field")

	// ErrUnknownType is returned by Registry.For for a type with no repository.
	ErrUnknownType = errors.New("no repository for entity type")
)

// Repository is the per-type storage contract consumed by the graph
// synchronizer, the layout engine, and the transport router.
//
// Update applies a partial field change and returns the number of affected
// rows (0 if the entity does not exist). Implementations publish a change
// event for every successful write so that views re-derive automatically.
type Repository interface {
	Get(ctx context.Context, id int64) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Create(ctx context.Context, rec *Record) (int64, error)
	Update(ctx context.Context, id int64, fields Fields) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Registry resolves repositories by entity type.
type Registry struct {
	repos map[Type]Repository
}

// NewRegistry creates a registry over the given repositories.
func NewRegistry(repos map[Type]Repository) *Registry {
	m := make(map[Type]Repository, len(repos))
	for t, r := range repos {
		m[t] = r
	}
	return &Registry{repos: m}
}

// For returns the repository for the given type.
func (g *Registry) For(t Type) (Repository, error) {
	r, ok := g.repos[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return r, nil
}

// Resolve fetches the record behind a ref.
func (g *Registry) Resolve(ctx context.Context, ref Ref) (*Record, error) {
	repo, err := g.For(ref.Type)
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, ref.ID)
}

// Types returns the registered entity types in the canonical order of
// Types(), followed by any extras in undefined order.
func (g *Registry) Types() []Type {
	seen := make(map[Type]bool, len(g.repos))
	var out []Type
	for _, t := range Types() {
		if _, ok := g.repos[t]; ok {
			out = append(out, t)
			seen[t] = true
		}
	}
	for t := range g.repos {
		if !seen[t] {
			out = append(out, t)
		}
	}
	return out
}
