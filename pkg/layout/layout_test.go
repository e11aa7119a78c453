package layout

import (
	"context"
	"testing"

	"github.com/opsdeck/opsdeck/pkg/bus"
	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/flow"
	"github.com/opsdeck/opsdeck/pkg/rel"
	"github.com/opsdeck/opsdeck/pkg/store"
)

// viewOf builds a view directly; layout only reads Nodes and Edges.
func viewOf(nodes []flow.Node, edges []flow.Edge) *flow.View {
	return &flow.View{Nodes: nodes, Edges: edges}
}

func node(id string) flow.Node {
	return flow.Node{ID: id}
}

func edge(kind rel.Kind, source, target string) flow.Edge {
	return flow.Edge{
		ID:     flow.EdgeID(kind, source, target),
		Source: source,
		Target: target,
		Kind:   kind,
	}
}

func TestCompute_BlocksEdgesDefineLayers(t *testing.T) {
	// a blocks b blocks c: three layers left to right.
	view := viewOf(
		[]flow.Node{node("project-1"), node("project-2"), node("project-3")},
		[]flow.Edge{
			edge(rel.KindBlocks, "project-1", "project-2"),
			edge(rel.KindBlocks, "project-2", "project-3"),
		},
	)

	positioned, err := Compute(view, DirectionLR)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	xs := map[string]float64{}
	for _, n := range positioned {
		xs[n.ID] = n.X
	}
	if !(xs["project-1"] < xs["project-2"] && xs["project-2"] < xs["project-3"]) {
		t.Errorf("blocks chain not layered left to right: %v", xs)
	}
}

func TestCompute_NonBlocksEdgesDoNotRank(t *testing.T) {
	view := viewOf(
		[]flow.Node{node("project-1"), node("goal-1")},
		[]flow.Edge{edge(rel.KindSupports, "project-1", "goal-1")},
	)

	positioned, err := Compute(view, DirectionLR)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range positioned {
		if n.X != marginX {
			t.Errorf("%s ranked into layer %v by a supports edge", n.ID, n.X)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	view := viewOf(
		[]flow.Node{
			node("project-1"), node("project-2"), node("project-3"),
			node("goal-1"), node("task-1"), node("task-2"),
		},
		[]flow.Edge{
			edge(rel.KindBlocks, "project-1", "project-2"),
			edge(rel.KindBlocks, "project-1", "project-3"),
			edge(rel.KindSupports, "project-2", "goal-1"),
			edge(rel.KindBlocks, "task-1", "task-2"),
			edge(rel.KindRelatesTo, "task-2", "goal-1"),
		},
	)

	first, err := Compute(view, DirectionLR)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compute(view, DirectionLR)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatal("runs differ in node count")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("node %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCompute_Directions(t *testing.T) {
	view := viewOf(
		[]flow.Node{node("a-1"), node("a-2")},
		[]flow.Edge{edge(rel.KindBlocks, "a-1", "a-2")},
	)

	lr, err := Compute(view, DirectionLR)
	if err != nil {
		t.Fatal(err)
	}
	tb, err := Compute(view, DirectionTB)
	if err != nil {
		t.Fatal(err)
	}

	pos := func(nodes []flow.Node, id string) flow.Node {
		for _, n := range nodes {
			if n.ID == id {
				return n
			}
		}
		t.Fatalf("node %s missing", id)
		return flow.Node{}
	}

	if !(pos(lr, "a-2").X > pos(lr, "a-1").X) {
		t.Error("LR layout did not advance along X")
	}
	if !(pos(tb, "a-2").Y > pos(tb, "a-1").Y) {
		t.Error("TB layout did not advance along Y")
	}
}

func TestCompute_InvalidDirection(t *testing.T) {
	if _, err := Compute(viewOf(nil, nil), "RL"); err == nil {
		t.Error("Compute accepted an unsupported direction")
	}
}

func TestCompute_CycleDoesNotHang(t *testing.T) {
	view := viewOf(
		[]flow.Node{node("a-1"), node("a-2")},
		[]flow.Edge{
			edge(rel.KindBlocks, "a-1", "a-2"),
			edge(rel.KindBlocks, "a-2", "a-1"),
		},
	)
	positioned, err := Compute(view, DirectionLR)
	if err != nil {
		t.Fatal(err)
	}
	if len(positioned) != 2 {
		t.Errorf("cycle dropped nodes: %d", len(positioned))
	}
}

func TestOrderLayers_ReducesCrossings(t *testing.T) {
	// Two parents each pointing at the opposite-side child; the initial
	// id-sorted order has one crossing that a barycenter sweep removes.
	g := newDigraph()
	for _, id := range []string{"a-1", "a-2", "b-1", "b-2"} {
		g.addNode(id)
	}
	g.addEdge("a-1", "b-2")
	g.addEdge("a-2", "b-1")
	g.assignLayers()

	neighbors := map[string][]string{
		"a-1": {"b-2"}, "a-2": {"b-1"},
		"b-1": {"a-2"}, "b-2": {"a-1"},
	}

	initial := g.layerOrder()
	before := countLayerCrossings(initial[0], initial[1], neighbors)
	if before != 1 {
		t.Fatalf("initial crossings = %d, want 1", before)
	}

	order := g.orderLayers(neighbors)
	after := countLayerCrossings(order[0], order[1], neighbors)
	if after != 0 {
		t.Errorf("crossings after ordering = %d, want 0", after)
	}
}

func TestEngine_PersistsChangedPositions(t *testing.T) {
	b := bus.New()
	defer b.Close()
	backend, err := store.OpenMemory(b)
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	repos := backend.Registry()
	ctx := context.Background()

	projects, _ := repos.For(entity.TypeProject)
	x, y := 999.0, 999.0
	id1, _ := projects.Create(ctx, &entity.Record{Title: "a", FlowX: &x, FlowY: &y})
	id2, _ := projects.Create(ctx, &entity.Record{Title: "b", FlowX: &x, FlowY: &y})

	backend.Links().Link(ctx,
		entity.Ref{Type: entity.TypeProject, ID: id1},
		entity.Ref{Type: entity.TypeProject, ID: id2},
		rel.KindBlocks)

	sync := flow.NewSynchronizer(repos, backend.Links())
	view, err := sync.Rebuild(ctx)
	if err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(repos)
	repositioned, err := engine.Run(ctx, view, DirectionLR)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repositioned != 2 {
		t.Errorf("repositioned %d nodes, want 2", repositioned)
	}

	rec1, _ := projects.Get(ctx, id1)
	rec2, _ := projects.Get(ctx, id2)
	if !rec1.Placed() || !rec2.Placed() {
		t.Fatal("layout unplaced a node")
	}
	if !(*rec2.FlowX > *rec1.FlowX) {
		t.Errorf("persisted positions not layered: %v vs %v", *rec1.FlowX, *rec2.FlowX)
	}

	// Second run over the already-laid-out view writes nothing.
	view, _ = sync.Rebuild(ctx)
	repositioned, err = engine.Run(ctx, view, DirectionLR)
	if err != nil {
		t.Fatal(err)
	}
	if repositioned != 0 {
		t.Errorf("second run repositioned %d nodes, want 0", repositioned)
	}
}

func TestEngine_LeavesBacklogAlone(t *testing.T) {
	b := bus.New()
	defer b.Close()
	backend, _ := store.OpenMemory(b)
	defer backend.Close()

	repos := backend.Registry()
	ctx := context.Background()

	tasks, _ := repos.For(entity.TypeTask)
	id, _ := tasks.Create(ctx, &entity.Record{Title: "unplaced"})

	sync := flow.NewSynchronizer(repos, backend.Links())
	view, _ := sync.Rebuild(ctx)

	if _, err := NewEngine(repos).Run(ctx, view, DirectionTB); err != nil {
		t.Fatal(err)
	}

	rec, _ := tasks.Get(ctx, id)
	if rec.Placed() {
		t.Error("layout placed a backlog entity")
	}
}
