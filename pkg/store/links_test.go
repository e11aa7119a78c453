package store

import (
	"context"
	"testing"

	"github.com/opsdeck/opsdeck/pkg/bus"
	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/rel"
)

func newTestBackend(t *testing.T) (*Backend, *bus.Bus) {
	t.Helper()
	b := bus.New()
	backend, err := OpenMemory(b)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() {
		backend.Close()
		b.Close()
	})
	return backend, b
}

func TestLinkStore_LinkIsIdempotent(t *testing.T) {
	backend, _ := newTestBackend(t)
	links := backend.Links()
	ctx := context.Background()

	source := entity.Ref{Type: entity.TypeProject, ID: 5}
	target := entity.Ref{Type: entity.TypeProject, ID: 9}

	first, err := links.Link(ctx, source, target, rel.KindBlocks)
	if err != nil {
		t.Fatalf("first Link: %v", err)
	}
	second, err := links.Link(ctx, source, target, rel.KindBlocks)
	if err != nil {
		t.Fatalf("second Link: %v", err)
	}
	if first != second {
		t.Errorf("duplicate link created: ids %d and %d", first, second)
	}

	all, err := links.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("stored %d links, want 1", len(all))
	}
	got := all[0]
	if got.Source != source || got.Target != target || got.Kind != rel.KindBlocks {
		t.Errorf("stored link %+v", got)
	}
}

func TestLinkStore_SameTupleDifferentKind(t *testing.T) {
	backend, _ := newTestBackend(t)
	links := backend.Links()
	ctx := context.Background()

	a := entity.Ref{Type: entity.TypeGoal, ID: 1}
	b := entity.Ref{Type: entity.TypeProject, ID: 2}

	if _, err := links.Link(ctx, a, b, rel.KindSupports); err != nil {
		t.Fatal(err)
	}
	if _, err := links.Link(ctx, a, b, rel.KindRelatesTo); err != nil {
		t.Fatal(err)
	}

	all, _ := links.All(ctx)
	if len(all) != 2 {
		t.Errorf("stored %d links, want 2 (different kinds are distinct tuples)", len(all))
	}
}

func TestLinkStore_Unlink(t *testing.T) {
	backend, _ := newTestBackend(t)
	links := backend.Links()
	ctx := context.Background()

	a := entity.Ref{Type: entity.TypeProject, ID: 1}
	b := entity.Ref{Type: entity.TypeGoal, ID: 2}
	links.Link(ctx, a, b, rel.KindSupports)
	links.Link(ctx, a, b, rel.KindRelatesTo)

	kind := rel.KindSupports
	count, err := links.Unlink(ctx, a, b, &kind)
	if err != nil {
		t.Fatalf("Unlink(kind): %v", err)
	}
	if count != 1 {
		t.Errorf("Unlink(kind) deleted %d, want 1", count)
	}

	count, err = links.Unlink(ctx, a, b, nil)
	if err != nil {
		t.Fatalf("Unlink(all): %v", err)
	}
	if count != 1 {
		t.Errorf("Unlink(all) deleted %d, want 1", count)
	}

	all, _ := links.All(ctx)
	if len(all) != 0 {
		t.Errorf("%d links remain after unlink", len(all))
	}
}

func TestLinkStore_Queries(t *testing.T) {
	backend, _ := newTestBackend(t)
	links := backend.Links()
	ctx := context.Background()

	p := entity.Ref{Type: entity.TypeProject, ID: 1}
	g := entity.Ref{Type: entity.TypeGoal, ID: 1}
	r := entity.Ref{Type: entity.TypeRoutine, ID: 1}

	links.Link(ctx, p, g, rel.KindSupports)
	links.Link(ctx, r, p, rel.KindMaintains)

	out, err := links.Outgoing(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Target != g {
		t.Errorf("Outgoing(p) = %+v", out)
	}

	in, err := links.Incoming(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(in) != 1 || in[0].Source != r {
		t.Errorf("Incoming(p) = %+v", in)
	}

	conns, err := links.Connections(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(conns) != 2 {
		t.Errorf("Connections(p) returned %d links, want 2", len(conns))
	}
}

func TestLinkStore_NoReferentialChecks(t *testing.T) {
	backend, _ := newTestBackend(t)
	links := backend.Links()
	ctx := context.Background()

	// Neither endpoint exists; the write must still succeed.
	ghostA := entity.Ref{Type: entity.TypeTask, ID: 999}
	ghostB := entity.Ref{Type: entity.TypeAsset, ID: 888}
	if _, err := links.Link(ctx, ghostA, ghostB, rel.KindRelatesTo); err != nil {
		t.Fatalf("Link with dangling refs: %v", err)
	}
}

func TestLinkStore_PublishesChangeEvents(t *testing.T) {
	backend, b := newTestBackend(t)
	links := backend.Links()
	ctx := context.Background()

	ch, cancel := b.Subscribe(bus.TopicLinks)
	defer cancel()

	a := entity.Ref{Type: entity.TypeProject, ID: 1}
	c := entity.Ref{Type: entity.TypeProject, ID: 2}
	id, _ := links.Link(ctx, a, c, rel.KindBlocks)

	ev := <-ch
	if ev.Op != bus.OpCreate || ev.ID != id {
		t.Errorf("link event %+v, want create/%d", ev, id)
	}

	// Idempotent re-link publishes nothing.
	links.Link(ctx, a, c, rel.KindBlocks)
	if len(ch) != 0 {
		t.Error("idempotent re-link published a change event")
	}

	links.Unlink(ctx, a, c, nil)
	ev = <-ch
	if ev.Op != bus.OpDelete {
		t.Errorf("unlink event op = %s, want delete", ev.Op)
	}
}
