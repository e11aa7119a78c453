// Package observability provides hooks for instrumenting the console core.
//
// The core never depends on a metrics or tracing backend directly. Instead
// it emits events through small hook interfaces with no-op defaults;
// applications register real implementations at startup. This keeps the
// library importable without dragging in an observability framework and
// avoids import cycles (main registers, libraries emit).
//
// Register hooks once during startup:
//
//	observability.SetStoreHooks(&myStoreHooks{})
//	observability.SetDispatchHooks(&myDispatchHooks{})
package observability

import (
	"context"
	"sync"
	"time"
)

// StoreHooks receives events from the relationship store.
type StoreHooks interface {
	// OnLinkWrite records a persisted link, tagged by relationship kind.
	OnLinkWrite(ctx context.Context, kind string)
}

// SyncHooks receives events from the graph synchronizer.
type SyncHooks interface {
	// OnRebuild records a full view rebuild.
	OnRebuild(ctx context.Context, nodes, edges, backlog int, duration time.Duration)
}

// DispatchHooks receives events from the transport router.
type DispatchHooks interface {
	// OnDispatch records a handled drop.
	OnDispatch(ctx context.Context, zoneKind, payloadKind, outcome string)

	// OnMiss records a drop with no dispatch-table entry.
	OnMiss(ctx context.Context, zoneKind, payloadKind string)
}

// LayoutHooks receives events from the layout engine.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, direction string, nodeCount int)
	OnLayoutComplete(ctx context.Context, direction string, repositioned int, duration time.Duration, err error)
}

// No-op defaults.

type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLinkWrite(context.Context, string) {}

type NoopSyncHooks struct{}

func (NoopSyncHooks) OnRebuild(context.Context, int, int, int, time.Duration) {}

type NoopDispatchHooks struct{}

func (NoopDispatchHooks) OnDispatch(context.Context, string, string, string) {}
func (NoopDispatchHooks) OnMiss(context.Context, string, string)             {}

type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, string, int)                          {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, int, time.Duration, error) {}

var (
	storeHooks    StoreHooks    = NoopStoreHooks{}
	syncHooks     SyncHooks     = NoopSyncHooks{}
	dispatchHooks DispatchHooks = NoopDispatchHooks{}
	layoutHooks   LayoutHooks   = NoopLayoutHooks{}
	hooksMu       sync.RWMutex
)

// SetStoreHooks registers custom store hooks.
// Call once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetSyncHooks registers custom synchronizer hooks.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// SetDispatchHooks registers custom transport router hooks.
func SetDispatchHooks(h DispatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		dispatchHooks = h
	}
}

// SetLayoutHooks registers custom layout engine hooks.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Sync returns the registered synchronizer hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Dispatch returns the registered transport router hooks.
func Dispatch() DispatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return dispatchHooks
}

// Layout returns the registered layout engine hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	syncHooks = NoopSyncHooks{}
	dispatchHooks = NoopDispatchHooks{}
	layoutHooks = NoopLayoutHooks{}
}
