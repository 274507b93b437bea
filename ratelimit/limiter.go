package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/types"
)

// Limits configures the quota of one window.
type Limits struct {
	Requests int           `yaml:"requests" json:"requests"`
	Tokens   int           `yaml:"tokens" json:"tokens"`
	Window   time.Duration `yaml:"window" json:"window"`
}

// DefaultLimits returns the reference free-tier quota.
func DefaultLimits() Limits {
	return Limits{
		Requests: 100,
		Tokens:   10_000,
		Window:   time.Minute,
	}
}

// Limiter tracks per-session fixed windows. Mutations are atomic per
// session key; distinct sessions never contend on the same lock in the
// steady state.
type Limiter struct {
	limits Limits
	logger *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	sessions   map[string]*window
	maxEntries int
}

type window struct {
	mu       sync.Mutex
	start    time.Time
	requests int
	tokens   int
	lastSeen time.Time
}

// New creates a Limiter with the given per-window limits.
func New(limits Limits, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}
	return &Limiter{
		limits:     limits,
		logger:     logger.With(zap.String("component", "ratelimit")),
		now:        time.Now,
		sessions:   make(map[string]*window),
		maxEntries: 100_000,
	}
}

// Check evaluates whether one more request consuming tokensRequested
// tokens fits in the session's current window. It never mutates state:
// an elapsed window is evaluated as if freshly reset without rebasing
// it, and a session with no window yet reports full quota.
func (l *Limiter) Check(sessionID string, tokensRequested int) (bool, types.RateLimitStatus) {
	now := l.now()

	l.mu.Lock()
	w := l.sessions[sessionID]
	l.mu.Unlock()

	requests, tokens := 0, 0
	reset := l.limits.Window.Seconds()
	if w != nil {
		w.mu.Lock()
		if now.Sub(w.start) < l.limits.Window {
			requests = w.requests
			tokens = w.tokens
			reset = (l.limits.Window - now.Sub(w.start)).Seconds()
			if reset < 0 {
				reset = 0
			}
		}
		w.mu.Unlock()
	}

	status := types.RateLimitStatus{
		RequestsLimit:     l.limits.Requests,
		RequestsRemaining: l.limits.Requests - requests,
		TokensLimit:       l.limits.Tokens,
		TokensRemaining:   l.limits.Tokens - tokens,
		ResetSeconds:      reset,
	}
	if status.RequestsRemaining < 0 {
		status.RequestsRemaining = 0
	}
	if status.TokensRemaining < 0 {
		status.TokensRemaining = 0
	}

	allowed := requests < l.limits.Requests && tokens+tokensRequested <= l.limits.Tokens
	return allowed, status
}

// Consume records one request and the given token count against the
// session's current window, lazily rebasing the window first when it
// has elapsed. Concurrent Consume calls on one session never lose
// updates.
func (l *Limiter) Consume(sessionID string, tokens int) {
	now := l.now()
	w := l.getOrCreate(sessionID, now)

	w.mu.Lock()
	if now.Sub(w.start) >= l.limits.Window {
		w.start = now
		w.requests = 0
		w.tokens = 0
	}
	w.requests++
	if tokens > 0 {
		w.tokens += tokens
	}
	w.lastSeen = now
	w.mu.Unlock()
}

// Release drops the session's window state once its connection closes.
func (l *Limiter) Release(sessionID string) {
	l.mu.Lock()
	delete(l.sessions, sessionID)
	l.mu.Unlock()
}

func (l *Limiter) getOrCreate(sessionID string, now time.Time) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok := l.sessions[sessionID]; ok {
		return w
	}
	if len(l.sessions) >= l.maxEntries {
		l.gcLocked(now)
	}
	w := &window{start: now, lastSeen: now}
	l.sessions[sessionID] = w
	return w
}

// gcLocked drops windows idle for more than two window lengths. Bounded
// memory matters more than keeping stale counters around.
func (l *Limiter) gcLocked(now time.Time) {
	ttl := 2 * l.limits.Window
	dropped := 0
	for id, w := range l.sessions {
		w.mu.Lock()
		idle := now.Sub(w.lastSeen)
		w.mu.Unlock()
		if idle > ttl {
			delete(l.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		l.logger.Debug("rate limit windows swept", zap.Int("dropped", dropped))
	}
}
