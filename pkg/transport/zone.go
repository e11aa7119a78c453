package transport

import (
	"strings"

	"github.com/opsdeck/opsdeck/pkg/entity"
)

// ZoneKind identifies a category of droppable surface.
type ZoneKind string

const (
	// ZoneTransporter is the stash holding area.
	ZoneTransporter ZoneKind = "transporter"

	// ZoneCalendarCell is one day on the calendar; scope is the cell date
	// ("2024-01-15").
	ZoneCalendarCell ZoneKind = "calendar-cell"

	// ZoneBOM is a project's bill-of-materials; scope is the project id.
	ZoneBOM ZoneKind = "bom-drop-zone"

	// ZoneAsset is a project's asset association area; scope is the
	// project id.
	ZoneAsset ZoneKind = "asset-drop-zone"

	// ZoneGoal, ZoneProject, ZoneRoutine are entity drop targets; scope is
	// the target entity id.
	ZoneGoal    ZoneKind = "goal-drop-zone"
	ZoneProject ZoneKind = "project-drop-zone"
	ZoneRoutine ZoneKind = "routine-drop-zone"
)

// ZoneKinds lists every declared zone kind.
func ZoneKinds() []ZoneKind {
	return []ZoneKind{
		ZoneTransporter, ZoneCalendarCell, ZoneBOM, ZoneAsset,
		ZoneGoal, ZoneProject, ZoneRoutine,
	}
}

// TargetType returns the entity type a drop-zone kind addresses, for the
// zone kinds whose scope is an entity id.
func (z ZoneKind) TargetType() (entity.Type, bool) {
	switch z {
	case ZoneGoal:
		return entity.TypeGoal, true
	case ZoneProject:
		return entity.TypeProject, true
	case ZoneRoutine:
		return entity.TypeRoutine, true
	}
	return "", false
}

// Zone is a parsed zone id: the kind prefix plus the remaining scope.
type Zone struct {
	Kind  ZoneKind `json:"kind"`
	Scope string   `json:"scope,omitempty"`
}

// zonePrefixes is checked in declaration order. Longer prefixes never shadow
// shorter ones here because no kind is a prefix of another.
var zonePrefixes = []ZoneKind{
	ZoneCalendarCell, ZoneBOM, ZoneAsset,
	ZoneGoal, ZoneProject, ZoneRoutine, ZoneTransporter,
}

// ParseZone resolves a zone id of the form "<zone-kind>-<scope-id>" (or a
// bare zone kind for scopeless zones like the transporter). Unknown ids
// report ok=false; the router treats them as dispatch misses.
func ParseZone(zoneID string) (Zone, bool) {
	for _, kind := range zonePrefixes {
		prefix := string(kind)
		if zoneID == prefix {
			return Zone{Kind: kind}, true
		}
		if strings.HasPrefix(zoneID, prefix+"-") {
			return Zone{Kind: kind, Scope: zoneID[len(prefix)+1:]}, true
		}
	}
	return Zone{}, false
}
