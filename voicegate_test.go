package voicegate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/voicegate/ratelimit"
	"github.com/BaSui01/voicegate/types"
)

func TestNew_Defaults(t *testing.T) {
	gw, err := New()
	require.NoError(t, err)
	defer gw.Close()

	require.NotNil(t, gw.Engine)
	require.NotNil(t, gw.Registry)
	require.NotNil(t, gw.Store)
	require.NotNil(t, gw.Limiter)
	require.NotNil(t, gw.Tools)
}

func TestGateway_IssueSecret(t *testing.T) {
	gw, err := New(
		WithSecretTTL(time.Minute),
		WithLimits(ratelimit.Limits{Requests: 10, Tokens: 1000, Window: time.Minute}),
	)
	require.NoError(t, err)
	defer gw.Close()

	secret, err := gw.IssueSecret(types.SessionConfig{Voice: "verse"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret.Value, "ek_"))
	assert.Equal(t, "verse", secret.Config.Voice)
	assert.Equal(t, types.DefaultModel, secret.Config.Model)
}
