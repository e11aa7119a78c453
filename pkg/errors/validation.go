package errors

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ValidateEntityType validates an entity type string from an API or CLI
// input against the known types.
func ValidateEntityType(typ string) error {
	switch typ {
	case "project", "goal", "routine", "asset", "task", "inventory", "work":
		return nil
	case "":
		return New(ErrCodeInvalidEntityType, "entity type cannot be empty")
	}
	return New(ErrCodeInvalidEntityType, "unknown entity type: %q", typ)
}

// ValidateRelationship validates a relationship kind string.
func ValidateRelationship(kind string) error {
	switch kind {
	case "blocks", "supports", "maintains", "relates_to", "sub_task_of":
		return nil
	case "":
		return New(ErrCodeInvalidKind, "relationship cannot be empty")
	}
	return New(ErrCodeInvalidKind, "unknown relationship: %q", kind)
}

// ValidateDirection validates a layout direction string.
func ValidateDirection(dir string) error {
	if dir == "LR" || dir == "TB" {
		return nil
	}
	return New(ErrCodeInvalidDirection, "layout direction must be LR or TB, got %q", dir)
}

// entityRefRegex matches node ids of the form "<type>-<id>".
var entityRefRegex = regexp.MustCompile(`^([a-z_]+)-([0-9]+)$`)

// ParseEntityRef splits a node id ("task-12") into its type and numeric id.
func ParseEntityRef(nodeID string) (string, int64, error) {
	match := entityRefRegex.FindStringSubmatch(nodeID)
	if match == nil {
		return "", 0, New(ErrCodeInvalidEntityRef, "malformed entity reference: %q", nodeID)
	}
	if err := ValidateEntityType(match[1]); err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, New(ErrCodeInvalidEntityRef, "malformed entity id in %q", nodeID)
	}
	return match[1], id, nil
}

// ValidateZoneID validates a drop zone id for basic shape and safety before
// the transport router parses it. The router still treats unknown zone kinds
// as dispatch misses; this only rejects garbage early at the API boundary.
func ValidateZoneID(zoneID string) error {
	if zoneID == "" {
		return New(ErrCodeInvalidZone, "zone id cannot be empty")
	}
	if len(zoneID) > 128 {
		return New(ErrCodeInvalidZone, "zone id too long (max 128 characters)")
	}
	for _, r := range zoneID {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidZone, "zone id contains invalid characters")
		}
	}
	return nil
}

// ValidateDate validates a calendar date in "2006-01-02" form.
func ValidateDate(date string) error {
	if date == "" {
		return New(ErrCodeInvalidDate, "date cannot be empty")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return New(ErrCodeInvalidDate, "date must be YYYY-MM-DD, got %q", date)
	}
	return nil
}

// timeOfDayRegex matches "HH:MM" with a 24-hour clock.
var timeOfDayRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateTimeOfDay validates an optional schedule time. Empty is allowed;
// the confirmation step treats it as "no specific time".
func ValidateTimeOfDay(t string) error {
	if t == "" {
		return nil
	}
	if !timeOfDayRegex.MatchString(t) {
		return New(ErrCodeInvalidDate, "time must be HH:MM, got %q", t)
	}
	return nil
}

// ValidateTitle validates an entity title from user input.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return New(ErrCodeInvalidInput, "title cannot be empty")
	}
	if len(title) > 256 {
		return New(ErrCodeInvalidInput, "title too long (max 256 characters)")
	}
	for _, r := range title {
		if unicode.IsControl(r) && r != '\t' {
			return New(ErrCodeInvalidInput, "title contains invalid control characters")
		}
	}
	return nil
}
