package observability

import (
	"context"
	"testing"
	"time"
)

type recordingDispatchHooks struct {
	dispatches int
	misses     int
}

func (h *recordingDispatchHooks) OnDispatch(ctx context.Context, zone, payload, outcome string) {
	h.dispatches++
}

func (h *recordingDispatchHooks) OnMiss(ctx context.Context, zone, payload string) {
	h.misses++
}

func TestSetAndGetDispatchHooks(t *testing.T) {
	defer Reset()

	h := &recordingDispatchHooks{}
	SetDispatchHooks(h)

	Dispatch().OnDispatch(context.Background(), "calendar-cell", "task-item", "scheduled")
	Dispatch().OnMiss(context.Background(), "bom-drop-zone", "goal-item")

	if h.dispatches != 1 || h.misses != 1 {
		t.Errorf("hooks recorded dispatches=%d misses=%d, want 1/1", h.dispatches, h.misses)
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	defer Reset()

	h := &recordingDispatchHooks{}
	SetDispatchHooks(h)
	SetDispatchHooks(nil)

	Dispatch().OnMiss(context.Background(), "x", "y")
	if h.misses != 1 {
		t.Errorf("nil registration replaced hooks; misses = %d, want 1", h.misses)
	}
}

func TestReset(t *testing.T) {
	SetDispatchHooks(&recordingDispatchHooks{})
	Reset()

	if _, ok := Dispatch().(NoopDispatchHooks); !ok {
		t.Errorf("Reset did not restore no-op dispatch hooks, got %T", Dispatch())
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Errorf("Reset did not restore no-op store hooks, got %T", Store())
	}
}

func TestNoopHooksAreCallable(t *testing.T) {
	Reset()
	ctx := context.Background()
	Store().OnLinkWrite(ctx, "blocks")
	Sync().OnRebuild(ctx, 1, 2, 3, time.Millisecond)
	Layout().OnLayoutStart(ctx, "LR", 4)
	Layout().OnLayoutComplete(ctx, "LR", 4, time.Millisecond, nil)
}
