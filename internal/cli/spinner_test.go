package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStopIsIdempotent(t *testing.T) {
	spin := newSpinner("Laying out nodes...")
	spin.Start()
	time.Sleep(50 * time.Millisecond)

	spin.Stop()
	spin.Stop()

	if spin.Cancelled() {
		t.Error("plain Stop must not count as cancellation")
	}
}

func TestSpinnerParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	spin := newSpinnerWithContext(ctx, "Seeding demo workshop...")
	spin.Start()

	cancel()
	spin.Stop()

	if !spin.Cancelled() {
		t.Error("Cancelled() = false after parent context cancel")
	}
}

func TestSpinnerParentTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	spin := newSpinnerWithContext(ctx, "Laying out nodes...")
	spin.Start()

	<-ctx.Done()
	spin.Stop()

	if !spin.Cancelled() {
		t.Error("Cancelled() = false after parent context timeout")
	}
}

func TestSpinnerStopWithError(t *testing.T) {
	spin := newSpinner("Seeding demo workshop...")
	spin.Start()
	time.Sleep(50 * time.Millisecond)

	spin.StopWithError("Seed failed")

	// The error path stops the spinner; a second Stop must not block.
	spin.Stop()
}

func TestSpinnerStopBeforeFirstFrame(t *testing.T) {
	spin := newSpinner("Laying out nodes...")
	spin.Start()
	spin.Stop()

	if spin.Cancelled() {
		t.Error("plain Stop must not count as cancellation")
	}
}
