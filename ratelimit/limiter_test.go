package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(limits Limits) (*Limiter, *time.Time) {
	l := New(limits, nil)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &now
	l.now = func() time.Time { return *clock }
	return l, clock
}

func TestCheckFreshSessionHasFullQuota(t *testing.T) {
	l, _ := newTestLimiter(Limits{Requests: 100, Tokens: 10_000, Window: time.Minute})

	allowed, status := l.Check("s1", 500)
	assert.True(t, allowed)
	assert.Equal(t, 100, status.RequestsRemaining)
	assert.Equal(t, 10_000, status.TokensRemaining)
	assert.Equal(t, 60.0, status.ResetSeconds)
}

func TestCheckDoesNotMutate(t *testing.T) {
	l, _ := newTestLimiter(DefaultLimits())

	for i := 0; i < 500; i++ {
		l.Check("s1", 1)
	}
	_, status := l.Check("s1", 1)
	assert.Equal(t, 100, status.RequestsRemaining)
}

func TestRequestLimitDeniesWithinWindow(t *testing.T) {
	l, clock := newTestLimiter(Limits{Requests: 100, Tokens: 10_000, Window: time.Minute})

	for i := 0; i < 100; i++ {
		allowed, _ := l.Check("s1", 0)
		require.True(t, allowed, "request %d should be allowed", i+1)
		l.Consume("s1", 0)
	}

	// The 101st check within the same window is denied.
	allowed, status := l.Check("s1", 0)
	assert.False(t, allowed)
	assert.Equal(t, 0, status.RequestsRemaining)
	assert.Greater(t, status.ResetSeconds, 0.0)

	// After the window elapses a fresh check restores full quota.
	*clock = clock.Add(61 * time.Second)
	allowed, status = l.Check("s1", 0)
	assert.True(t, allowed)
	assert.Equal(t, 100, status.RequestsRemaining)
	assert.Equal(t, 10_000, status.TokensRemaining)
}

func TestTokenLimitDenies(t *testing.T) {
	l, _ := newTestLimiter(Limits{Requests: 100, Tokens: 1000, Window: time.Minute})

	l.Consume("s1", 900)
	allowed, status := l.Check("s1", 50)
	assert.True(t, allowed)
	assert.Equal(t, 100, status.TokensRemaining)

	allowed, _ = l.Check("s1", 101)
	assert.False(t, allowed)

	// Exactly exhausting the budget is still allowed.
	allowed, _ = l.Check("s1", 100)
	assert.True(t, allowed)
}

func TestLazyWindowReset(t *testing.T) {
	l, clock := newTestLimiter(Limits{Requests: 10, Tokens: 100, Window: time.Minute})

	l.Consume("s1", 60)
	*clock = clock.Add(2 * time.Minute)

	// Consume after the boundary rebases the window, never interpolates.
	l.Consume("s1", 10)
	_, status := l.Check("s1", 0)
	assert.Equal(t, 9, status.RequestsRemaining)
	assert.Equal(t, 90, status.TokensRemaining)
	assert.InDelta(t, 60.0, status.ResetSeconds, 0.01)
}

func TestSessionsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Limits{Requests: 1, Tokens: 100, Window: time.Minute})

	l.Consume("s1", 1)
	allowed, _ := l.Check("s1", 0)
	assert.False(t, allowed)

	allowed, _ = l.Check("s2", 0)
	assert.True(t, allowed)
}

func TestConcurrentConsumeLosesNoUpdates(t *testing.T) {
	l, _ := newTestLimiter(Limits{Requests: 100_000, Tokens: 1_000_000, Window: time.Hour})

	const goroutines = 16
	const perGoroutine = 200
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				l.Consume("s1", 3)
			}
		}()
	}
	wg.Wait()

	_, status := l.Check("s1", 0)
	assert.Equal(t, 100_000-goroutines*perGoroutine, status.RequestsRemaining)
	assert.Equal(t, 1_000_000-goroutines*perGoroutine*3, status.TokensRemaining)
}

func TestReleaseDropsState(t *testing.T) {
	l, _ := newTestLimiter(Limits{Requests: 1, Tokens: 10, Window: time.Minute})

	l.Consume("s1", 10)
	l.Release("s1")
	allowed, status := l.Check("s1", 10)
	assert.True(t, allowed)
	assert.Equal(t, 1, status.RequestsRemaining)
}
