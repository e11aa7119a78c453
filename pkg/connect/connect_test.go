package connect

import (
	"context"
	"errors"
	"testing"

	"github.com/opsdeck/opsdeck/pkg/bus"
	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/rel"
	"github.com/opsdeck/opsdeck/pkg/store"
)

func newWorkflow(t *testing.T) (*Workflow, rel.Store) {
	t.Helper()
	b := bus.New()
	backend, err := store.OpenMemory(b)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		backend.Close()
		b.Close()
	})
	links := backend.Links()
	return New(links), links
}

func TestWorkflow_BlocksCommit(t *testing.T) {
	w, links := newWorkflow(t)
	ctx := context.Background()

	p5 := entity.Ref{Type: entity.TypeProject, ID: 5}
	p9 := entity.Ref{Type: entity.TypeProject, ID: 9}

	if err := w.Begin(p5, p9); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if w.State() != StatePending {
		t.Fatal("state != pending after Begin")
	}

	// Entering PENDING must not write.
	all, _ := links.All(ctx)
	if len(all) != 0 {
		t.Fatalf("Begin wrote %d links", len(all))
	}

	ids, err := w.Resolve(ctx, ChoiceBlocks)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("Resolve returned %d ids, want 1", len(ids))
	}
	if w.State() != StateIdle {
		t.Error("state != idle after Resolve")
	}

	all, _ = links.All(ctx)
	if len(all) != 1 {
		t.Fatalf("stored %d links, want 1", len(all))
	}
	l := all[0]
	if l.Source != p5 || l.Target != p9 || l.Kind != rel.KindBlocks {
		t.Errorf("committed link = %+v, want project-5 blocks project-9", l)
	}
}

func TestWorkflow_ReverseBlocksInvertsDirection(t *testing.T) {
	w, links := newWorkflow(t)
	ctx := context.Background()

	a := entity.Ref{Type: entity.TypeProject, ID: 1}
	b := entity.Ref{Type: entity.TypeProject, ID: 2}

	w.Begin(a, b)
	if _, err := w.Resolve(ctx, ChoiceReverseBlocks); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	all, _ := links.All(ctx)
	if len(all) != 1 {
		t.Fatalf("stored %d links, want 1", len(all))
	}
	if all[0].Source != b || all[0].Target != a {
		t.Errorf("reverse-blocks stored %s -> %s, want %s -> %s",
			all[0].Source, all[0].Target, b, a)
	}
}

func TestWorkflow_RelatedIsBidirectional(t *testing.T) {
	w, links := newWorkflow(t)
	ctx := context.Background()

	g1 := entity.Ref{Type: entity.TypeGoal, ID: 1}
	p2 := entity.Ref{Type: entity.TypeProject, ID: 2}

	w.Begin(g1, p2)
	ids, err := w.Resolve(ctx, ChoiceRelated)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("related produced %d links, want 2", len(ids))
	}

	out, _ := links.Outgoing(ctx, g1)
	if len(out) != 1 || out[0].Target != p2 || out[0].Kind != rel.KindRelatesTo {
		t.Errorf("goal-1 outgoing = %+v", out)
	}
	out, _ = links.Outgoing(ctx, p2)
	if len(out) != 1 || out[0].Target != g1 || out[0].Kind != rel.KindRelatesTo {
		t.Errorf("project-2 outgoing = %+v", out)
	}
}

func TestWorkflow_CancelWritesNothing(t *testing.T) {
	w, links := newWorkflow(t)
	ctx := context.Background()

	w.Begin(entity.Ref{Type: entity.TypeTask, ID: 1}, entity.Ref{Type: entity.TypeTask, ID: 2})
	ids, err := w.Resolve(ctx, ChoiceCancel)
	if err != nil {
		t.Fatalf("Resolve(cancel): %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("cancel returned link ids %v", ids)
	}
	if w.State() != StateIdle {
		t.Error("state != idle after cancel")
	}

	all, _ := links.All(ctx)
	if len(all) != 0 {
		t.Errorf("cancel wrote %d links", len(all))
	}
}

func TestWorkflow_GuardRails(t *testing.T) {
	w, _ := newWorkflow(t)
	ctx := context.Background()

	a := entity.Ref{Type: entity.TypeProject, ID: 1}
	b := entity.Ref{Type: entity.TypeProject, ID: 2}

	if err := w.Begin(a, a); !errors.Is(err, ErrSelfConnection) {
		t.Errorf("Begin(a, a) = %v, want ErrSelfConnection", err)
	}
	if _, err := w.Resolve(ctx, ChoiceBlocks); !errors.Is(err, ErrNotPending) {
		t.Errorf("Resolve while idle = %v, want ErrNotPending", err)
	}

	w.Begin(a, b)
	if err := w.Begin(a, b); !errors.Is(err, ErrAlreadyPending) {
		t.Errorf("second Begin = %v, want ErrAlreadyPending", err)
	}
	if _, err := w.Resolve(ctx, "mystery"); !errors.Is(err, ErrUnknownChoice) {
		t.Errorf("Resolve(mystery) = %v, want ErrUnknownChoice", err)
	}
}

func TestWorkflow_ProvisionalEdge(t *testing.T) {
	w, _ := newWorkflow(t)

	if _, ok := w.ProvisionalEdge(); ok {
		t.Error("idle workflow produced a provisional edge")
	}

	a := entity.Ref{Type: entity.TypeProject, ID: 3}
	b := entity.Ref{Type: entity.TypeGoal, ID: 4}
	w.Begin(a, b)

	e, ok := w.ProvisionalEdge()
	if !ok {
		t.Fatal("pending workflow has no provisional edge")
	}
	if e.ID != "pending-project-3-goal-4" {
		t.Errorf("provisional edge id = %s", e.ID)
	}
	if !e.Style.Dashed {
		t.Error("provisional edge is not visually distinct")
	}

	// The provisional id never collides with the committed id.
	committed, _ := CommittedEdgeID(ChoiceBlocks, a, b)
	if committed == e.ID {
		t.Error("provisional and committed edge ids collide")
	}
}

func TestCommittedEdgeID(t *testing.T) {
	a := entity.Ref{Type: entity.TypeProject, ID: 5}
	b := entity.Ref{Type: entity.TypeProject, ID: 9}

	tests := []struct {
		choice Choice
		want   string
		ok     bool
	}{
		{ChoiceBlocks, "blocks-project-5-project-9", true},
		{ChoiceReverseBlocks, "blocks-project-9-project-5", true},
		{ChoiceRelated, "relates_to-project-5-project-9", true},
		{ChoiceCancel, "", false},
	}
	for _, tt := range tests {
		got, ok := CommittedEdgeID(tt.choice, a, b)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CommittedEdgeID(%s) = %q/%v, want %q/%v", tt.choice, got, ok, tt.want, tt.ok)
		}
	}
}
