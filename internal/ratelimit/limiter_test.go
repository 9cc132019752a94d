package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBucketStartsFullAndDepletes(t *testing.T) {
	rl := NewRateLimiter(1.0, 3.0)

	if tokens := rl.GetCurrentTokens(); tokens < 2.9 {
		t.Fatalf("expected ~3 tokens at start, got %.2f", tokens)
	}
	for i := 0; i < 3; i++ {
		if !rl.tryAcquire() {
			t.Fatalf("tryAcquire() failed on attempt %d", i+1)
		}
	}
	if rl.tryAcquire() {
		t.Error("tryAcquire() should fail once the burst is spent")
	}
}

func TestNewRateLimiterNormalizesInputs(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	if rl.refillRate <= 0 {
		t.Errorf("refill rate should fall back to a positive default, got %v", rl.refillRate)
	}
	if rl.maxTokens != 1 {
		t.Errorf("burst should be at least 1, got %v", rl.maxTokens)
	}
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	rl := NewRateLimiter(20.0, 1.0)
	rl.tryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Wait() returned after %v, expected to block for a refill", elapsed)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(0.1, 1.0)
	rl.tryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestCooldownBlocksAndNeverShortens(t *testing.T) {
	rl := NewRateLimiter(100.0, 100.0)

	if d := rl.CooldownRemaining(); d != 0 {
		t.Fatalf("CooldownRemaining() = %v, want 0", d)
	}

	rl.SetCooldown(300 * time.Millisecond)
	rl.SetCooldown(10 * time.Millisecond)
	if d := rl.CooldownRemaining(); d < 200*time.Millisecond {
		t.Errorf("shorter cooldown must not replace a longer one, remaining %v", d)
	}
	if rl.tryAcquire() {
		t.Error("tryAcquire() should fail during cooldown")
	}
}

func TestDrainForcesWait(t *testing.T) {
	rl := NewRateLimiter(50.0, 10.0)
	rl.Drain()

	if tokens := rl.GetCurrentTokens(); tokens > 0.5 {
		t.Errorf("after Drain tokens = %.2f, want ~0", tokens)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() after Drain returned error: %v", err)
	}
}

func TestConcurrentWaiters(t *testing.T) {
	rl := NewAPIRateLimiter(200.0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if err := rl.Wait(ctx); err != nil {
					return
				}
			}
		}()
	}
	wg.Wait()
}
