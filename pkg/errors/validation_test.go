package errors

import (
	"strings"
	"testing"
)

func TestValidateEntityType(t *testing.T) {
	for _, typ := range []string{"project", "goal", "routine", "asset", "task", "inventory", "work"} {
		if err := ValidateEntityType(typ); err != nil {
			t.Errorf("ValidateEntityType(%q) = %v, want nil", typ, err)
		}
	}

	for _, typ := range []string{"", "widget", "Project", "task "} {
		err := ValidateEntityType(typ)
		if !Is(err, ErrCodeInvalidEntityType) {
			t.Errorf("ValidateEntityType(%q) = %v, want INVALID_ENTITY_TYPE", typ, err)
		}
	}
}

func TestValidateRelationship(t *testing.T) {
	for _, kind := range []string{"blocks", "supports", "maintains", "relates_to", "sub_task_of"} {
		if err := ValidateRelationship(kind); err != nil {
			t.Errorf("ValidateRelationship(%q) = %v, want nil", kind, err)
		}
	}

	for _, kind := range []string{"", "depends_on", "BLOCKS"} {
		err := ValidateRelationship(kind)
		if !Is(err, ErrCodeInvalidKind) {
			t.Errorf("ValidateRelationship(%q) = %v, want INVALID_RELATIONSHIP", kind, err)
		}
	}
}

func TestValidateDirection(t *testing.T) {
	if err := ValidateDirection("LR"); err != nil {
		t.Errorf("ValidateDirection(LR) = %v", err)
	}
	if err := ValidateDirection("TB"); err != nil {
		t.Errorf("ValidateDirection(TB) = %v", err)
	}
	if err := ValidateDirection("RL"); !Is(err, ErrCodeInvalidDirection) {
		t.Errorf("ValidateDirection(RL) = %v, want INVALID_DIRECTION", err)
	}
}

func TestParseEntityRef(t *testing.T) {
	tests := []struct {
		nodeID   string
		wantType string
		wantID   int64
		wantErr  bool
	}{
		{"task-12", "task", 12, false},
		{"project-1", "project", 1, false},
		{"sub_task_of-1", "", 0, true}, // valid shape, unknown type
		{"task-0", "", 0, true},
		{"task--3", "", 0, true},
		{"task", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		typ, id, err := ParseEntityRef(tt.nodeID)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseEntityRef(%q) = (%s, %d, nil), want error", tt.nodeID, typ, id)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseEntityRef(%q) = %v", tt.nodeID, err)
			continue
		}
		if typ != tt.wantType || id != tt.wantID {
			t.Errorf("ParseEntityRef(%q) = (%s, %d), want (%s, %d)", tt.nodeID, typ, id, tt.wantType, tt.wantID)
		}
	}
}

func TestValidateZoneID(t *testing.T) {
	valid := []string{"transporter", "calendar-cell-2024-01-15", "bom-drop-zone-42"}
	for _, z := range valid {
		if err := ValidateZoneID(z); err != nil {
			t.Errorf("ValidateZoneID(%q) = %v, want nil", z, err)
		}
	}

	invalid := []string{"", "zone with spaces", "zone\x00id", strings.Repeat("z", 129)}
	for _, z := range invalid {
		err := ValidateZoneID(z)
		if !Is(err, ErrCodeInvalidZone) {
			t.Errorf("ValidateZoneID(%q) = %v, want INVALID_ZONE", z, err)
		}
	}
}

func TestValidateDate(t *testing.T) {
	if err := ValidateDate("2024-01-15"); err != nil {
		t.Errorf("ValidateDate(2024-01-15) = %v", err)
	}
	for _, d := range []string{"", "2024-13-01", "01/15/2024", "2024-01-15T10:00"} {
		err := ValidateDate(d)
		if !Is(err, ErrCodeInvalidDate) {
			t.Errorf("ValidateDate(%q) = %v, want INVALID_DATE", d, err)
		}
	}
}

func TestValidateTimeOfDay(t *testing.T) {
	valid := []string{"", "00:00", "09:30", "23:59"}
	for _, v := range valid {
		if err := ValidateTimeOfDay(v); err != nil {
			t.Errorf("ValidateTimeOfDay(%q) = %v, want nil", v, err)
		}
	}

	invalid := []string{"24:00", "9:30", "09:60", "noon"}
	for _, v := range invalid {
		err := ValidateTimeOfDay(v)
		if !Is(err, ErrCodeInvalidDate) {
			t.Errorf("ValidateTimeOfDay(%q) = %v, want INVALID_DATE", v, err)
		}
	}
}

func TestValidateTitle(t *testing.T) {
	if err := ValidateTitle("Rebuild the workbench"); err != nil {
		t.Errorf("ValidateTitle = %v", err)
	}

	invalid := []string{"", "   ", strings.Repeat("t", 257), "bad\x01title"}
	for _, v := range invalid {
		err := ValidateTitle(v)
		if !Is(err, ErrCodeInvalidInput) {
			t.Errorf("ValidateTitle(%q) = %v, want INVALID_INPUT", v, err)
		}
	}
}
