package scheduler

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockFiresInOrder(t *testing.T) {
	clock := NewFakeClock(epoch)
	var order []string

	clock.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	clock.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	clock.AfterFunc(2*time.Second, func() { order = append(order, "c") })
	clock.AfterFunc(5*time.Second, func() { order = append(order, "late") })

	clock.Advance(2 * time.Second)

	if got := len(order); got != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("unexpected firing order %v", order)
	}
	if !clock.Now().Equal(epoch.Add(2 * time.Second)) {
		t.Errorf("Now() = %v", clock.Now())
	}
	if clock.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", clock.Pending())
	}
}

func TestFakeClockStop(t *testing.T) {
	clock := NewFakeClock(epoch)
	fired := false
	timer := clock.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("first Stop should report true")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	clock.Advance(time.Minute)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestAfterRunsOnce(t *testing.T) {
	clock := NewFakeClock(epoch)
	s := New(clock)
	count := 0
	h := s.After(2*time.Second, func() { count++ })

	clock.Advance(1999 * time.Millisecond)
	if count != 0 {
		t.Fatal("fired early")
	}
	clock.Advance(time.Millisecond)
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if h.Active() {
		t.Error("handle should be inactive after firing")
	}
	h.Dispose() // no-op after firing
	clock.Advance(time.Minute)
	if count != 1 {
		t.Errorf("count = %d after extra advance", count)
	}
}

func TestEveryRepeatsUntilDisposed(t *testing.T) {
	clock := NewFakeClock(epoch)
	s := New(clock)
	ticks := 0
	h := s.Every(500*time.Millisecond, func() { ticks++ })

	clock.Advance(2 * time.Second)
	if ticks != 4 {
		t.Fatalf("ticks = %d, want 4", ticks)
	}

	h.Dispose()
	h.Dispose()
	clock.Advance(10 * time.Second)
	if ticks != 4 {
		t.Errorf("ticks = %d after dispose, want 4", ticks)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestEveryDisposeFromInsideTask(t *testing.T) {
	clock := NewFakeClock(epoch)
	s := New(clock)
	ticks := 0
	var h *Handle
	h = s.Every(time.Second, func() {
		ticks++
		if ticks == 3 {
			h.Dispose()
		}
	})

	clock.Advance(time.Minute)
	if ticks != 3 {
		t.Errorf("ticks = %d, want 3", ticks)
	}
}

func TestDisposeBeforeDueTickIsCooperative(t *testing.T) {
	clock := NewFakeClock(epoch)
	s := New(clock)
	ran := false
	var second *Handle

	// Both due at the same instant; the first disposes the second.
	s.After(time.Second, func() { second.Dispose() })
	second = s.After(time.Second, func() { ran = true })

	clock.Advance(time.Second)
	if ran {
		t.Error("disposed task ran")
	}
}

func TestNilHandleIsSafe(t *testing.T) {
	var h *Handle
	h.Dispose()
	if h.Active() {
		t.Error("nil handle reported active")
	}
}

func TestRealClockAfter(t *testing.T) {
	s := New(nil)
	done := make(chan struct{})
	s.After(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real clock task did not run")
	}
}
