package transport

import (
	"github.com/opsdeck/opsdeck/pkg/entity"
)

// PayloadKind tags an in-flight drag payload.
type PayloadKind string

const (
	KindProjectItem   PayloadKind = "project-item"
	KindGoalItem      PayloadKind = "goal-item"
	KindTaskItem      PayloadKind = "task-item"
	KindRoutineItem   PayloadKind = "routine-item"
	KindAssetItem     PayloadKind = "asset-item"
	KindInventoryItem PayloadKind = "inventory-item"

	// KindStashItem wraps an item already in the holding area; the payload
	// carries the stash item id rather than a direct entity reference.
	KindStashItem PayloadKind = "stash-item"

	// KindUniversalCard is a generic entity card whose reference carries the
	// concrete type.
	KindUniversalCard PayloadKind = "universal-card"
)

// PayloadKinds lists every declared payload kind. The dispatch table test
// checks each one has at least one handler.
func PayloadKinds() []PayloadKind {
	return []PayloadKind{
		KindProjectItem, KindGoalItem, KindTaskItem, KindRoutineItem,
		KindAssetItem, KindInventoryItem, KindStashItem, KindUniversalCard,
	}
}

// PayloadKindFor returns the direct payload kind for an entity type.
func PayloadKindFor(t entity.Type) (PayloadKind, bool) {
	switch t {
	case entity.TypeProject:
		return KindProjectItem, true
	case entity.TypeGoal:
		return KindGoalItem, true
	case entity.TypeTask:
		return KindTaskItem, true
	case entity.TypeRoutine:
		return KindRoutineItem, true
	case entity.TypeAsset:
		return KindAssetItem, true
	case entity.TypeInventory:
		return KindInventoryItem, true
	}
	return "", false
}

// Payload is one in-flight drag payload. It lives only for the duration of
// a gesture; nothing here is persisted.
//
// Direct payloads carry Ref. Stash payloads carry StashItemID instead and
// the router resolves the wrapped entity from the holding area.
type Payload struct {
	Kind        PayloadKind       `json:"kind"`
	Ref         entity.Ref        `json:"ref,omitempty"`
	StashItemID string            `json:"stash_item_id,omitempty"`
	Title       string            `json:"title,omitempty"`
	Subtitle    string            `json:"subtitle,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}
