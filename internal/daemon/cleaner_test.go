package daemon

import (
	"testing"

	"github.com/1broseidon/wind/internal/dispatch"
)

func TestCleanerTickQueuesPass(t *testing.T) {
	loop := dispatch.New(1, nil)
	var passes int
	c := NewCleaner(CleanerConfig{}, loop, func() int {
		passes++
		return 1
	})
	if c.interval != DefaultCleanupInterval {
		t.Fatalf("expected default interval, got %v", c.interval)
	}

	c.tick()
	if passes != 0 {
		t.Fatalf("pass ran before the loop stepped")
	}
	// The queue holds one task, so this tick is dropped.
	c.tick()
	if n := loop.RunPending(); n != 1 {
		t.Fatalf("expected one queued pass, got %d", n)
	}
	if passes != 1 {
		t.Fatalf("expected one pass, got %d", passes)
	}
}

func TestCleanNowRecoversPanic(t *testing.T) {
	c := NewCleaner(CleanerConfig{}, dispatch.New(1, nil), func() int {
		panic("boom")
	})
	c.CleanNow()
}
