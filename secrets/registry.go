package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/types"
)

// DefaultTTL is the secret lifetime when none is configured.
const DefaultTTL = 600 * time.Second

const tokenBytes = 32

// Registry issues and redeems one-time client secrets. All mutations
// are atomic per secret under a single registry lock; the critical
// sections are constant-time map operations.
type Registry struct {
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]types.ClientSecret

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRegistry creates a Registry with the given secret TTL and starts
// a background sweep for expired, unredeemed entries. Call Close to
// stop the sweeper.
func NewRegistry(ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		ttl:     ttl,
		logger:  logger.With(zap.String("component", "secrets")),
		now:     time.Now,
		entries: make(map[string]types.ClientSecret),
		stopCh:  make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

// Issue generates a cryptographically random opaque token bound to the
// resolved config snapshot. The only side effect is the registry insert.
func (r *Registry) Issue(config types.SessionConfig) (types.ClientSecret, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return types.ClientSecret{}, fmt.Errorf("generate client secret: %w", err)
	}
	secret := types.ClientSecret{
		Value:     "ek_" + base64.RawURLEncoding.EncodeToString(buf),
		Config:    config.ApplyDefaults(),
		ExpiresAt: r.now().Add(r.ttl),
	}

	r.mu.Lock()
	r.entries[secret.Value] = secret
	r.mu.Unlock()

	return secret, nil
}

// Redeem exchanges a secret for its bound config, deleting the entry.
// Exactly one concurrent redeem of the same secret succeeds; every
// other outcome (unknown, expired, already redeemed) is the same
// INVALID_SECRET error.
func (r *Registry) Redeem(secret string) (types.SessionConfig, error) {
	now := r.now()

	r.mu.Lock()
	entry, ok := r.entries[secret]
	if ok {
		delete(r.entries, secret)
	}
	r.mu.Unlock()

	if !ok || entry.Expired(now) {
		return types.SessionConfig{}, types.NewInvalidSecretError()
	}
	return entry.Config, nil
}

// Len reports the number of outstanding secrets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close stops the background sweeper.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

func (r *Registry) sweepLoop() {
	interval := r.ttl / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep purges expired entries so sustained issuance without redemption
// cannot grow the registry beyond TTL x issuance rate.
func (r *Registry) sweep() {
	now := r.now()

	r.mu.Lock()
	dropped := 0
	for value, entry := range r.entries {
		if entry.Expired(now) {
			delete(r.entries, value)
			dropped++
		}
	}
	r.mu.Unlock()

	if dropped > 0 {
		r.logger.Debug("expired client secrets swept", zap.Int("dropped", dropped))
	}
}
