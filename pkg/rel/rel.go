// Package rel defines the typed relationship model: directed links between
// entity references, the closed-for-now set of relationship kinds, and the
// default-kind inference table used when a drop or connection gesture does
// not name a relationship explicitly.
package rel

import (
	"context"
	"time"

	"github.com/opsdeck/opsdeck/pkg/entity"
)

// Kind is a relationship type. The set is open to extension; unknown kinds
// round-trip through storage untouched and render with the fallback style.
type Kind string

const (
	// KindBlocks means the source must finish before the target can proceed.
	KindBlocks Kind = "blocks"
	// KindSupports means the source contributes toward the target.
	KindSupports Kind = "supports"
	// KindMaintains means the source keeps the target in working order.
	KindMaintains Kind = "maintains"
	// KindRelatesTo is an untyped association. "Related" connections store
	// one link in each direction so either endpoint's queries surface it.
	KindRelatesTo Kind = "relates_to"
	// KindSubTaskOf nests a task under a parent.
	KindSubTaskOf Kind = "sub_task_of"
)

// Kinds lists the built-in relationship kinds.
func Kinds() []Kind {
	return []Kind{KindBlocks, KindSupports, KindMaintains, KindRelatesTo, KindSubTaskOf}
}

// Valid reports whether k is one of the built-in kinds.
func Valid(k Kind) bool {
	switch k {
	case KindBlocks, KindSupports, KindMaintains, KindRelatesTo, KindSubTaskOf:
		return true
	}
	return false
}

// Link is a persisted directed relationship between two entity references.
// No two links share the same (source, target, kind) tuple.
type Link struct {
	ID        int64      `json:"id"`
	Source    entity.Ref `json:"source"`
	Target    entity.Ref `json:"target"`
	Kind      Kind       `json:"relationship"`
	CreatedAt time.Time  `json:"created_at"`
}

// typePair keys the default-kind table.
type typePair struct {
	source, target entity.Type
}

// defaultKinds maps ordered (source type, target type) pairs to the
// relationship inferred when the user does not choose one. The table is
// data, kept exhaustive and explicit on purpose: restyling a pairing is an
// edit here, never a heuristic.
var defaultKinds = map[typePair]Kind{
	{entity.TypeProject, entity.TypeProject}: KindBlocks,
	{entity.TypeProject, entity.TypeGoal}:    KindSupports,
	{entity.TypeGoal, entity.TypeProject}:    KindSupports,
	{entity.TypeGoal, entity.TypeGoal}:       KindBlocks,
	{entity.TypeRoutine, entity.TypeProject}: KindMaintains,
	{entity.TypeRoutine, entity.TypeAsset}:   KindMaintains,
	{entity.TypeRoutine, entity.TypeGoal}:    KindSupports,
	{entity.TypeTask, entity.TypeProject}:    KindSubTaskOf,
	{entity.TypeTask, entity.TypeTask}:       KindBlocks,
	{entity.TypeAsset, entity.TypeProject}:   KindSupports,
	{entity.TypeWork, entity.TypeGoal}:       KindSupports,
}

// DefaultKind returns the relationship inferred for a source→target pairing,
// falling back to KindRelatesTo for pairs the table does not name.
func DefaultKind(source, target entity.Type) Kind {
	if k, ok := defaultKinds[typePair{source, target}]; ok {
		return k
	}
	return KindRelatesTo
}

// Store is the relationship store contract.
//
// Link is idempotent on the (source, target, kind) tuple: re-linking an
// existing tuple returns the stored link's id without writing. Neither Link
// nor Unlink checks that the referenced entities exist; dangling links are
// harmless metadata that simply never produce a rendered edge.
type Store interface {
	// Link creates the relationship if it is not already stored and returns
	// the link id either way.
	Link(ctx context.Context, source, target entity.Ref, kind Kind) (int64, error)

	// Unlink deletes links between the pair. A nil kind deletes all
	// relationships between source and target; otherwise only the given
	// kind. Returns the number of deleted links.
	Unlink(ctx context.Context, source, target entity.Ref, kind *Kind) (int64, error)

	// Incoming returns links whose target is ref.
	Incoming(ctx context.Context, ref entity.Ref) ([]Link, error)

	// Outgoing returns links whose source is ref.
	Outgoing(ctx context.Context, ref entity.Ref) ([]Link, error)

	// Connections returns all links touching ref in either direction.
	Connections(ctx context.Context, ref entity.Ref) ([]Link, error)

	// All returns every stored link. Used by the graph synchronizer's full
	// rebuild; fine at the scale of hundreds of links.
	All(ctx context.Context) ([]Link, error)
}
