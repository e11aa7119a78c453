package layout

import (
	"slices"
	"sort"
)

// digraph is the minimal layered directed graph the engine works on.
// Node identity is the canvas node id. Not safe for concurrent use.
type digraph struct {
	ids      []string            // insertion order, for deterministic walks
	present  map[string]bool
	outgoing map[string][]string // rank edges only
	incoming map[string][]string
	layers   map[string]int
}

func newDigraph() *digraph {
	return &digraph{
		present:  make(map[string]bool),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		layers:   make(map[string]int),
	}
}

func (g *digraph) addNode(id string) {
	if g.present[id] {
		return
	}
	g.present[id] = true
	g.ids = append(g.ids, id)
}

// addEdge records a ranking edge. Both endpoints must have been added;
// unknown endpoints are ignored, mirroring how suppressed entities drop out
// of the view before layout runs.
func (g *digraph) addEdge(from, to string) {
	if !g.present[from] || !g.present[to] || from == to {
		return
	}
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
}

// assignLayers computes a longest-path layering via topological traversal
// (Kahn's algorithm): sources sit at layer 0 and every node lands one past
// its deepest parent. Nodes caught in a cycle never reach zero in-degree and
// keep their default layer 0, which is deterministic and good enough for a
// graph that never promised acyclicity.
func (g *digraph) assignLayers() {
	inDegree := make(map[string]int, len(g.ids))
	queue := make([]string, 0, len(g.ids))

	for _, id := range g.ids {
		degree := len(g.incoming[id])
		inDegree[id] = degree
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.outgoing[curr] {
			if layer := g.layers[curr] + 1; layer > g.layers[child] {
				g.layers[child] = layer
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
}

// layerOrder groups node ids by layer, each layer sorted by id. This is the
// deterministic starting order refined by the barycenter sweeps.
func (g *digraph) layerOrder() map[int][]string {
	order := make(map[int][]string)
	for _, id := range g.ids {
		l := g.layers[id]
		order[l] = append(order[l], id)
	}
	for l := range order {
		slices.Sort(order[l])
	}
	return order
}

// maxLayer returns the highest assigned layer, or 0 for an empty graph.
func (g *digraph) maxLayer() int {
	max := 0
	for _, l := range g.layers {
		if l > max {
			max = l
		}
	}
	return max
}

// orderLayers runs a fixed number of alternating barycenter sweeps over the
// layer ordering. A node's barycenter is the mean position of its neighbors
// in the adjacent layer; sorting by it pulls connected nodes toward each
// other and shakes out most crossings. The sweep count is fixed and the sort
// is stable with an id tiebreak, so the result is deterministic.
func (g *digraph) orderLayers(neighbors map[string][]string) map[int][]string {
	order := g.layerOrder()
	layers := make([]int, 0, len(order))
	for l := range order {
		layers = append(layers, l)
	}
	slices.Sort(layers)

	const sweeps = 4
	for s := 0; s < sweeps; s++ {
		if s%2 == 0 {
			for i := 1; i < len(layers); i++ {
				g.sortByBarycenter(order, layers[i], layers[i-1], neighbors)
			}
		} else {
			for i := len(layers) - 2; i >= 0; i-- {
				g.sortByBarycenter(order, layers[i], layers[i+1], neighbors)
			}
		}
	}
	return order
}

// sortByBarycenter reorders one layer by the mean position of each node's
// neighbors in the fixed reference layer. Nodes without neighbors keep a
// barycenter equal to their current position so they stay put.
func (g *digraph) sortByBarycenter(order map[int][]string, layer, reference int, neighbors map[string][]string) {
	refPos := make(map[string]int, len(order[reference]))
	for i, id := range order[reference] {
		refPos[id] = i
	}

	current := order[layer]
	bary := make(map[string]float64, len(current))
	for i, id := range current {
		sum, count := 0.0, 0
		for _, n := range neighbors[id] {
			if pos, ok := refPos[n]; ok {
				sum += float64(pos)
				count++
			}
		}
		if count == 0 {
			bary[id] = float64(i)
		} else {
			bary[id] = sum / float64(count)
		}
	}

	sort.SliceStable(current, func(i, j int) bool {
		bi, bj := bary[current[i]], bary[current[j]]
		if bi != bj {
			return bi < bj
		}
		return current[i] < current[j]
	})
	order[layer] = current
}

// countLayerCrossings counts edge crossings between two adjacent ordered
// layers. Two edges (u1,v1) and (u2,v2) cross iff pos(u1) < pos(u2) and
// pos(v1) > pos(v2). Quadratic in the edge count, which is fine at this
// scale; only tests call it.
func countLayerCrossings(upper, lower []string, neighbors map[string][]string) int {
	lowerPos := make(map[string]int, len(lower))
	for i, id := range lower {
		lowerPos[id] = i
	}

	type span struct{ upper, lower int }
	var edges []span
	for i, id := range upper {
		for _, n := range neighbors[id] {
			if pos, ok := lowerPos[n]; ok {
				edges = append(edges, span{i, pos})
			}
		}
	}

	crossings := 0
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			a, b := edges[i], edges[j]
			if (a.upper < b.upper && a.lower > b.lower) || (a.upper > b.upper && a.lower < b.lower) {
				crossings++
			}
		}
	}
	return crossings
}
