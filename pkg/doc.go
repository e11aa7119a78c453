// Package pkg provides the core libraries for the opsdeck operations console.
//
// # Overview
//
// Opsdeck tracks personal operations (projects, goals, routines, assets,
// tasks, inventory) as a typed relationship graph. The pkg directory is
// organized into four main areas:
//
//  1. Storage: [entity], [rel], [store], [bus] (records, links, SQLite, change events)
//  2. Derivation: [flow], [layout] (the graph view and hierarchical positioning)
//  3. Interaction: [connect], [transport], [appstate], [stash] (gestures, drops, UI state)
//  4. Output: [render/dot] (Graphviz export of the canvas)
//
// # Architecture
//
// The typical data flow through the console:
//
//	SQLite (entities + links)
//	         ↓
//	    [flow] package (derive nodes, edges, backlog)
//	         ↓
//	    [layout] package (rank, order, position)
//	         ↓
//	    canvas / [render/dot] export
//
// Mutations run the other way: drag-and-drop payloads enter through
// [transport], connection gestures through [connect], and every write lands
// in [store], which publishes a change event on [bus] so views re-derive.
//
// Cross-cutting concerns live in [errors] (coded errors and input
// validation) and [observability] (pluggable instrumentation hooks).
//
// # Quick Start
//
// Open a database and derive the graph view:
//
//	backend, _ := store.Open(dataDir, bus.New())
//	repos := backend.Registry()
//	sync := flow.NewSynchronizer(repos, backend.Links())
//	view, _ := sync.Rebuild(ctx)
//
// Dispatch a drop:
//
//	state := appstate.New(stash.NewMemoryStore())
//	router := transport.NewRouter(repos, backend.Links(), backend.BOM(), state, logger)
//	result, _ := router.Dispatch(ctx, "transporter", payload)
//
// [entity]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/entity
// [rel]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/rel
// [store]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/store
// [bus]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/bus
// [flow]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/flow
// [layout]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/layout
// [connect]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/connect
// [transport]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/transport
// [appstate]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/appstate
// [stash]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/stash
// [render/dot]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/render/dot
// [errors]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/errors
// [observability]: https://pkg.go.dev/github.com/opsdeck/opsdeck/pkg/observability
package pkg
