package secrets

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/voicegate/types"
)

func newTestRegistry(t *testing.T, ttl time.Duration) (*Registry, *time.Time) {
	r := NewRegistry(ttl, nil)
	t.Cleanup(r.Close)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &now
	r.now = func() time.Time { return *clock }
	return r, clock
}

func TestIssueAndRedeem(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)

	secret, err := r.Issue(types.SessionConfig{Instructions: "be kind"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret.Value, "ek_"))
	// Config is resolved at issue time.
	assert.Equal(t, types.DefaultModel, secret.Config.Model)

	config, err := r.Redeem(secret.Value)
	require.NoError(t, err)
	assert.Equal(t, "be kind", config.Instructions)
	assert.Equal(t, types.DefaultModel, config.Model)
	assert.Zero(t, r.Len())
}

func TestSecretsAreUnique(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		secret, err := r.Issue(types.SessionConfig{})
		require.NoError(t, err)
		_, dup := seen[secret.Value]
		require.False(t, dup)
		seen[secret.Value] = struct{}{}
	}
}

func TestRedeemIsSingleUse(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)

	secret, err := r.Issue(types.SessionConfig{})
	require.NoError(t, err)

	_, err = r.Redeem(secret.Value)
	require.NoError(t, err)

	_, err = r.Redeem(secret.Value)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidSecret))
}

func TestConcurrentRedeemExactlyOneWins(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)

	secret, err := r.Issue(types.SessionConfig{})
	require.NoError(t, err)

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Redeem(secret.Value)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.True(t, types.IsErrorCode(err, types.ErrInvalidSecret))
		}
	}
	assert.Equal(t, 1, wins)
}

func TestExpiredSecretIndistinguishable(t *testing.T) {
	r, clock := newTestRegistry(t, time.Minute)

	secret, err := r.Issue(types.SessionConfig{})
	require.NoError(t, err)
	*clock = clock.Add(2 * time.Minute)

	_, expiredErr := r.Redeem(secret.Value)
	_, unknownErr := r.Redeem("ek_never_issued")

	require.Error(t, expiredErr)
	require.Error(t, unknownErr)
	assert.Equal(t, expiredErr.Error(), unknownErr.Error())
}

func TestSweepPurgesExpired(t *testing.T) {
	r, clock := newTestRegistry(t, time.Minute)

	for i := 0; i < 10; i++ {
		_, err := r.Issue(types.SessionConfig{})
		require.NoError(t, err)
	}
	require.Equal(t, 10, r.Len())

	*clock = clock.Add(2 * time.Minute)
	r.sweep()
	assert.Zero(t, r.Len())
}
