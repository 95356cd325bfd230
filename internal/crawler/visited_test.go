package crawler

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistryMarkIfNew(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	if !r.MarkIfNew("http://a.test/") {
		t.Error("first claim should return true")
	}
	if r.MarkIfNew("http://a.test/") {
		t.Error("second claim should return false")
	}
	if !r.Has("http://a.test/") {
		t.Error("claimed URL should be present")
	}
	if r.Has("http://a.test/other") {
		t.Error("unclaimed URL should be absent")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", r.Len())
	}
}

// TestRegistryConcurrentClaim verifies the cycle-avoidance primitive:
// when many goroutines discover the same URL at once, exactly one wins.
func TestRegistryConcurrentClaim(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	const workers = 64

	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if r.MarkIfNew("http://a.test/contested") {
				wins.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("expected exactly 1 winning claim, got %d", got)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 registry entry, got %d", r.Len())
	}
}
