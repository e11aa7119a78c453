// Package transport routes drag-and-drop payloads between UI surfaces into
// relationship writes, scheduling updates, stash operations, and BOM lines.
//
// Addressing follows the zone-id convention "<zone-kind>-<scope-id>"; the
// router resolves the zone kind by prefix, then dispatches on the pair
// (zone kind, payload kind) through an explicit table. Pairs absent from
// the table are logged no-ops: dropping is always safe. Malformed payloads
// (a stash id that resolves to nothing, a scope that does not parse) are
// treated the same way.
//
// Multi-step actions run sequentially and are not transactional: a failure
// partway leaves earlier writes committed. Each dispatch degrades to
// "mutation did not happen", never to a crash.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/opsdeck/opsdeck/pkg/appstate"
	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/observability"
	"github.com/opsdeck/opsdeck/pkg/rel"
	"github.com/opsdeck/opsdeck/pkg/stash"
)

// dateLayout is the calendar cell scope format.
const dateLayout = "2006-01-02"

// errMalformed marks a payload or zone scope the handler could not make
// sense of. Dispatch converts it into a logged miss rather than an error.
var errMalformed = errors.New("malformed payload")

// Outcome classifies what a dispatch did.
type Outcome string

const (
	// OutcomeMiss means no dispatch-table entry matched; nothing was written.
	OutcomeMiss Outcome = "miss"

	// OutcomeStashed means a stash item was created.
	OutcomeStashed Outcome = "stashed"

	// OutcomeConfirmationOpened means a schedule confirmation is now pending;
	// nothing was written yet.
	OutcomeConfirmationOpened Outcome = "confirmation-opened"

	// OutcomeScheduled means a scheduled_date was written directly.
	OutcomeScheduled Outcome = "scheduled"

	// OutcomeBOMLineAdded means a bill-of-materials line was inserted.
	OutcomeBOMLineAdded Outcome = "bom-line-added"

	// OutcomeAssociated means a project id was appended to an asset.
	OutcomeAssociated Outcome = "project-associated"

	// OutcomeLinked means relationship links were written.
	OutcomeLinked Outcome = "linked"
)

// Result reports what a dispatch or confirmation did.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Zone    Zone    `json:"zone"`

	// StashItemID is the created item on stash drops, or the consumed item
	// on drops that resolved one.
	StashItemID string `json:"stash_item_id,omitempty"`

	// LinkIDs are the relationship links written, in write order.
	LinkIDs []int64 `json:"link_ids,omitempty"`

	// BOMLineID is the inserted bill-of-materials line.
	BOMLineID int64 `json:"bom_line_id,omitempty"`
}

// BOMWriter inserts bill-of-materials lines.
type BOMWriter interface {
	AddLine(ctx context.Context, projectID, inventoryID int64) (int64, error)
}

// Router converts drop events into store mutations.
type Router struct {
	repos  *entity.Registry
	links  rel.Store
	bom    BOMWriter
	state  *appstate.Service
	logger *log.Logger
	table  map[dispatchKey]handler
}

// NewRouter creates a router. A nil logger discards.
func NewRouter(repos *entity.Registry, links rel.Store, bom BOMWriter, state *appstate.Service, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Router{
		repos:  repos,
		links:  links,
		bom:    bom,
		state:  state,
		logger: logger,
		table:  newDispatchTable(),
	}
}

type dispatchKey struct {
	zone    ZoneKind
	payload PayloadKind
}

type handler func(r *Router, ctx context.Context, zone Zone, p Payload) (Result, error)

// newDispatchTable builds the (zone kind, payload kind) table. Every pair a
// drop can act on is declared here; anything else is a miss by construction.
func newDispatchTable() map[dispatchKey]handler {
	table := make(map[dispatchKey]handler)

	// Transporter accepts every entity-bearing payload.
	for _, kind := range []PayloadKind{
		KindProjectItem, KindGoalItem, KindTaskItem, KindRoutineItem,
		KindAssetItem, KindInventoryItem, KindUniversalCard,
	} {
		table[dispatchKey{ZoneTransporter, kind}] = (*Router).stashPayload
	}

	// Calendar: stash-wrapped tasks go through the confirmation gate,
	// direct payloads write immediately.
	table[dispatchKey{ZoneCalendarCell, KindStashItem}] = (*Router).openScheduleConfirmation
	for _, kind := range []PayloadKind{KindProjectItem, KindTaskItem, KindRoutineItem} {
		table[dispatchKey{ZoneCalendarCell, kind}] = (*Router).scheduleDirect
	}

	table[dispatchKey{ZoneBOM, KindStashItem}] = (*Router).attachBOMLine
	table[dispatchKey{ZoneAsset, KindAssetItem}] = (*Router).associateAsset

	for _, zone := range []ZoneKind{ZoneGoal, ZoneProject, ZoneRoutine} {
		table[dispatchKey{zone, KindStashItem}] = (*Router).linkStashedEntity
	}

	return table
}

// Dispatch routes one drop event. Unknown zones, unmatched pairs, and
// malformed payloads return an OutcomeMiss result with a nil error; real
// store failures are returned for the caller to surface.
func (r *Router) Dispatch(ctx context.Context, zoneID string, p Payload) (Result, error) {
	zone, ok := ParseZone(zoneID)
	if !ok {
		r.logger.Debug("drop on unknown zone", "zone_id", zoneID, "payload", p.Kind)
		observability.Dispatch().OnMiss(ctx, zoneID, string(p.Kind))
		return Result{Outcome: OutcomeMiss}, nil
	}

	h, ok := r.table[dispatchKey{zone.Kind, p.Kind}]
	if !ok {
		return r.miss(ctx, zone, p, "no dispatch entry"), nil
	}

	res, err := h(r, ctx, zone, p)
	if errors.Is(err, errMalformed) {
		return r.miss(ctx, zone, p, err.Error()), nil
	}
	if err != nil {
		r.logger.Error("dispatch failed", "zone", zone.Kind, "payload", p.Kind, "err", err)
		return res, err
	}

	observability.Dispatch().OnDispatch(ctx, string(zone.Kind), string(p.Kind), string(res.Outcome))
	return res, nil
}

func (r *Router) miss(ctx context.Context, zone Zone, p Payload, reason string) Result {
	r.logger.Debug("dispatch miss", "zone", zone.Kind, "payload", p.Kind, "reason", reason)
	observability.Dispatch().OnMiss(ctx, string(zone.Kind), string(p.Kind))
	return Result{Outcome: OutcomeMiss, Zone: zone}
}

// stashPayload creates a stash item from an entity-bearing payload. The
// holding area is the one zone with no store mutation at all.
func (r *Router) stashPayload(ctx context.Context, zone Zone, p Payload) (Result, error) {
	if p.Ref.Zero() {
		return Result{}, fmt.Errorf("%w: no entity reference", errMalformed)
	}
	item := stash.Item{
		ID:        stash.NewID(),
		Ref:       p.Ref,
		Kind:      string(p.Kind),
		Title:     p.Title,
		Subtitle:  p.Subtitle,
		Payload:   p.Meta,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.state.Stash().Add(ctx, item); err != nil {
		return Result{}, fmt.Errorf("stashing %s: %w", p.Ref, err)
	}
	return Result{Outcome: OutcomeStashed, Zone: zone, StashItemID: item.ID}, nil
}

// openScheduleConfirmation handles a stash item dropped on a calendar cell.
// Only stash-wrapped tasks open the confirmation; nothing is written here.
func (r *Router) openScheduleConfirmation(ctx context.Context, zone Zone, p Payload) (Result, error) {
	item, err := r.resolveStashItem(ctx, p)
	if err != nil {
		return Result{}, err
	}
	if item.Ref.Type != entity.TypeTask {
		return Result{}, fmt.Errorf("%w: calendar accepts stash-wrapped tasks, got %s", errMalformed, item.Ref.Type)
	}
	date, err := time.Parse(dateLayout, zone.Scope)
	if err != nil {
		return Result{}, fmt.Errorf("%w: calendar cell scope %q", errMalformed, zone.Scope)
	}

	r.state.OpenSchedule(appstate.PendingSchedule{
		Ref:         item.Ref,
		StashItemID: item.ID,
		Date:        date,
	})
	return Result{Outcome: OutcomeConfirmationOpened, Zone: zone, StashItemID: item.ID}, nil
}

// scheduleDirect writes scheduled_date for a direct payload, no confirmation.
func (r *Router) scheduleDirect(ctx context.Context, zone Zone, p Payload) (Result, error) {
	if p.Ref.Zero() {
		return Result{}, fmt.Errorf("%w: no entity reference", errMalformed)
	}
	date, err := time.Parse(dateLayout, zone.Scope)
	if err != nil {
		return Result{}, fmt.Errorf("%w: calendar cell scope %q", errMalformed, zone.Scope)
	}
	repo, err := r.repos.For(p.Ref.Type)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if _, err := repo.Update(ctx, p.Ref.ID, entity.Fields{entity.FieldScheduledDate: date}); err != nil {
		return Result{}, fmt.Errorf("scheduling %s: %w", p.Ref, err)
	}
	return Result{Outcome: OutcomeScheduled, Zone: zone}, nil
}

// attachBOMLine inserts one bill-of-materials line for a stash-wrapped
// inventory item and consumes the stash item. Two independent writes; a
// failed removal leaves the line committed.
func (r *Router) attachBOMLine(ctx context.Context, zone Zone, p Payload) (Result, error) {
	item, err := r.resolveStashItem(ctx, p)
	if err != nil {
		return Result{}, err
	}
	if item.Ref.Type != entity.TypeInventory {
		return Result{}, fmt.Errorf("%w: BOM accepts stash-wrapped inventory, got %s", errMalformed, item.Ref.Type)
	}
	projectID, err := scopeID(zone)
	if err != nil {
		return Result{}, err
	}

	lineID, err := r.bom.AddLine(ctx, projectID, item.Ref.ID)
	if err != nil {
		return Result{}, fmt.Errorf("attaching BOM line: %w", err)
	}
	res := Result{Outcome: OutcomeBOMLineAdded, Zone: zone, StashItemID: item.ID, BOMLineID: lineID}
	if err := r.state.Stash().Remove(ctx, item.ID); err != nil {
		return res, fmt.Errorf("consuming stash item %s: %w", item.ID, err)
	}
	return res, nil
}

// associateAsset appends the zone's project id to the asset's project
// association collection, deduplicated. Re-dropping is a clean no-op write.
func (r *Router) associateAsset(ctx context.Context, zone Zone, p Payload) (Result, error) {
	if p.Ref.Type != entity.TypeAsset || p.Ref.ID == 0 {
		return Result{}, fmt.Errorf("%w: asset zone needs an asset payload", errMalformed)
	}
	projectID, err := scopeID(zone)
	if err != nil {
		return Result{}, err
	}

	repo, err := r.repos.For(entity.TypeAsset)
	if err != nil {
		return Result{}, err
	}
	rec, err := repo.Get(ctx, p.Ref.ID)
	if err != nil {
		return Result{}, fmt.Errorf("loading asset %d: %w", p.Ref.ID, err)
	}
	if slices.Contains(rec.ProjectIDs, projectID) {
		return Result{Outcome: OutcomeAssociated, Zone: zone}, nil
	}
	ids := append(slices.Clone(rec.ProjectIDs), projectID)
	if _, err := repo.Update(ctx, p.Ref.ID, entity.Fields{entity.FieldProjectIDs: ids}); err != nil {
		return Result{}, fmt.Errorf("associating asset %d with project %d: %w", p.Ref.ID, projectID, err)
	}
	return Result{Outcome: OutcomeAssociated, Zone: zone}, nil
}

// linkStashedEntity links a stash-wrapped project/goal/routine to the zone's
// target entity using the default-relationship inference table, then
// consumes the stash item.
func (r *Router) linkStashedEntity(ctx context.Context, zone Zone, p Payload) (Result, error) {
	item, err := r.resolveStashItem(ctx, p)
	if err != nil {
		return Result{}, err
	}
	switch item.Ref.Type {
	case entity.TypeProject, entity.TypeGoal, entity.TypeRoutine:
	default:
		return Result{}, fmt.Errorf("%w: drop zone accepts project/goal/routine, got %s", errMalformed, item.Ref.Type)
	}

	targetType, ok := zone.Kind.TargetType()
	if !ok {
		return Result{}, fmt.Errorf("%w: zone %s has no target type", errMalformed, zone.Kind)
	}
	targetID, err := scopeID(zone)
	if err != nil {
		return Result{}, err
	}
	target := entity.Ref{Type: targetType, ID: targetID}

	kind := rel.DefaultKind(item.Ref.Type, targetType)
	linkID, err := r.links.Link(ctx, item.Ref, target, kind)
	if err != nil {
		return Result{}, fmt.Errorf("linking %s to %s: %w", item.Ref, target, err)
	}
	res := Result{Outcome: OutcomeLinked, Zone: zone, StashItemID: item.ID, LinkIDs: []int64{linkID}}
	if err := r.state.Stash().Remove(ctx, item.ID); err != nil {
		return res, fmt.Errorf("consuming stash item %s: %w", item.ID, err)
	}
	return res, nil
}

// ConfirmSchedule commits the pending schedule confirmation: writes the
// cell date (and optional time of day) to the task, then consumes the stash
// item. Confirming with nothing pending returns ErrNoPendingSchedule.
func (r *Router) ConfirmSchedule(ctx context.Context, timeOfDay string) (Result, error) {
	pending, err := r.state.TakeSchedule()
	if err != nil {
		return Result{}, err
	}

	repo, err := r.repos.For(pending.Ref.Type)
	if err != nil {
		return Result{}, err
	}
	fields := entity.Fields{entity.FieldScheduledDate: pending.Date}
	if timeOfDay != "" {
		fields[entity.FieldScheduledTime] = timeOfDay
	}
	if _, err := repo.Update(ctx, pending.Ref.ID, fields); err != nil {
		return Result{}, fmt.Errorf("scheduling %s: %w", pending.Ref, err)
	}

	res := Result{Outcome: OutcomeScheduled, StashItemID: pending.StashItemID}
	if err := r.state.Stash().Remove(ctx, pending.StashItemID); err != nil {
		return res, fmt.Errorf("consuming stash item %s: %w", pending.StashItemID, err)
	}
	return res, nil
}

// DismissSchedule discards the pending confirmation. The stash item stays
// in the holding area and nothing is written.
func (r *Router) DismissSchedule() {
	r.state.DismissSchedule()
}

// resolveStashItem loads the holding-area item a stash payload references.
// A dangling or missing id is a malformed payload.
func (r *Router) resolveStashItem(ctx context.Context, p Payload) (stash.Item, error) {
	if p.StashItemID == "" {
		return stash.Item{}, fmt.Errorf("%w: stash payload without item id", errMalformed)
	}
	item, err := r.state.Stash().Get(ctx, p.StashItemID)
	if errors.Is(err, stash.ErrNotFound) {
		return stash.Item{}, fmt.Errorf("%w: stash item %s not found", errMalformed, p.StashItemID)
	}
	if err != nil {
		return stash.Item{}, fmt.Errorf("resolving stash item %s: %w", p.StashItemID, err)
	}
	return item, nil
}

// scopeID parses a numeric zone scope.
func scopeID(zone Zone) (int64, error) {
	id, err := strconv.ParseInt(zone.Scope, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: zone scope %q is not an id", errMalformed, zone.Scope)
	}
	return id, nil
}
