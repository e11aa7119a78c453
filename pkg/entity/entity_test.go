package entity

import (
	"context"
	"testing"
)

func TestRef_NodeID(t *testing.T) {
	tests := []struct {
		ref  Ref
		want string
	}{
		{Ref{Type: TypeProject, ID: 5}, "project-5"},
		{Ref{Type: TypeGoal, ID: 1}, "goal-1"},
		{Ref{Type: TypeRoutine, ID: 42}, "routine-42"},
	}
	for _, tt := range tests {
		if got := tt.ref.NodeID(); got != tt.want {
			t.Errorf("NodeID() = %q, want %q", got, tt.want)
		}
	}
}

func TestRecord_Placed(t *testing.T) {
	x, y := 120.0, 80.0

	rec := &Record{ID: 1, Type: TypeProject}
	if rec.Placed() {
		t.Error("record without coordinates reported as placed")
	}

	rec.FlowX = &x
	if rec.Placed() {
		t.Error("record with only X reported as placed")
	}

	rec.FlowY = &y
	if !rec.Placed() {
		t.Error("record with both coordinates reported as unplaced")
	}
}

type stubRepo struct {
	Repository
}

func TestRegistry_For(t *testing.T) {
	reg := NewRegistry(map[Type]Repository{
		TypeProject: stubRepo{},
		TypeGoal:    stubRepo{},
	})

	if _, err := reg.For(TypeProject); err != nil {
		t.Fatalf("For(project) = %v", err)
	}
	if _, err := reg.For(TypeAsset); err == nil {
		t.Fatal("For(asset) succeeded for unregistered type")
	}

	types := reg.Types()
	if len(types) != 2 || types[0] != TypeProject || types[1] != TypeGoal {
		t.Errorf("Types() = %v, want [project goal]", types)
	}
}

func TestRegistry_ResolveUnknownType(t *testing.T) {
	reg := NewRegistry(nil)
	if _, err := reg.Resolve(context.Background(), Ref{Type: TypeTask, ID: 3}); err == nil {
		t.Fatal("Resolve succeeded with no repositories")
	}
}
