package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("voicegate_test", reg)

	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()
	c.EventInbound("response.create")
	c.EventOutbound("response.done")
	c.TokensConsumed(42)
	c.RateLimitDenied()
	c.AudioTranscoded("inbound", 320)
	c.SecretIssued()
	c.SecretRedeemed("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.sessionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsInbound.WithLabelValues("response.create")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.tokensConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimitDenied))
	assert.Equal(t, 320.0, testutil.ToFloat64(c.audioBytes.WithLabelValues("inbound")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCollectorNilSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.SessionOpened()
		c.SessionClosed()
		c.EventInbound("x")
		c.EventOutbound("x")
		c.ResponseFinished(0.1)
		c.TokensConsumed(1)
		c.RateLimitDenied()
		c.AudioTranscoded("outbound", 1)
		c.SecretIssued()
		c.SecretRedeemed("invalid")
	})
}
