package flow

import (
	"context"

	"github.com/opsdeck/opsdeck/pkg/bus"
)

// Watcher keeps a view current by re-deriving it whenever the underlying
// entities or links change. Consumers receive each fresh view on Views;
// between a write and the next delivery the previous view may be stale,
// which is the accepted eventual-consistency window.
type Watcher struct {
	sync   *Synchronizer
	views  chan *View
	cancel func()
}

// Watch subscribes the synchronizer to the bus and starts re-deriving on
// every change event. An initial rebuild is delivered immediately. Stop the
// watcher by cancelling ctx or calling Close.
func Watch(ctx context.Context, s *Synchronizer, b *bus.Bus) (*Watcher, error) {
	events, cancel := b.Subscribe()

	w := &Watcher{
		sync:   s,
		views:  make(chan *View, 1),
		cancel: cancel,
	}

	initial, err := s.Rebuild(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	w.views <- initial

	go w.loop(ctx, events)
	return w, nil
}

// Views delivers each re-derived view. Only the latest view is retained:
// if the consumer lags, intermediate derivations are replaced, never queued.
func (w *Watcher) Views() <-chan *View { return w.views }

// Close unsubscribes from the bus. The Views channel is closed once the
// internal loop drains.
func (w *Watcher) Close() { w.cancel() }

func (w *Watcher) loop(ctx context.Context, events <-chan bus.Event) {
	defer close(w.views)
	for {
		select {
		case <-ctx.Done():
			w.cancel()
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			// Coalesce: drain whatever queued up behind this event and
			// rebuild once.
			for len(events) > 0 {
				<-events
			}
			view, err := w.sync.Rebuild(ctx)
			if err != nil {
				continue // next change retries; stale view remains visible
			}
			select {
			case w.views <- view:
			default:
				// Replace the undelivered stale view.
				select {
				case <-w.views:
				default:
				}
				w.views <- view
			}
		}
	}
}
