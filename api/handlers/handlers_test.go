package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/api"
	"github.com/BaSui01/voicegate/conversation"
	"github.com/BaSui01/voicegate/engine"
	"github.com/BaSui01/voicegate/inference"
	"github.com/BaSui01/voicegate/ratelimit"
	"github.com/BaSui01/voicegate/secrets"
	"github.com/BaSui01/voicegate/toolcall"
	"github.com/BaSui01/voicegate/types"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

// mockHealthCheck 模拟健康检查
type mockHealthCheck struct {
	name string
	err  error
}

func (m *mockHealthCheck) Name() string { return m.name }

func (m *mockHealthCheck) Check(ctx context.Context) error { return m.err }

func newTestRegistry(t *testing.T) *secrets.Registry {
	t.Helper()
	registry := secrets.NewRegistry(time.Minute, nil)
	t.Cleanup(registry.Close)
	return registry
}

func newTestEngine(t *testing.T, registry *secrets.Registry) *engine.Engine {
	t.Helper()
	return engine.New(engine.Options{
		Registry:  registry,
		Store:     conversation.NewMemoryStore(),
		Limiter:   ratelimit.New(ratelimit.DefaultLimits(), nil),
		Tools:     toolcall.NewEngine(time.Second, nil),
		Responder: inference.NewScriptedResponder(),
	})
}

// =============================================================================
// 🧪 HealthHandler 测试
// =============================================================================

func TestHealthHandler_Healthz(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleHealthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthHandler_FailingCheck(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())
	handler.RegisterCheck(&mockHealthCheck{name: "redis", err: errors.New("connection refused")})
	handler.RegisterCheck(&mockHealthCheck{name: "disk"})

	w := httptest.NewRecorder()
	handler.HandleHealthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "fail", status.Checks["redis"].Status)
	assert.Equal(t, "pass", status.Checks["disk"].Status)
}

// =============================================================================
// 🧪 SecretHandler 测试
// =============================================================================

func TestSecretHandler_CreateWithDefaults(t *testing.T) {
	registry := newTestRegistry(t)
	handler := NewSecretHandler(registry, nil, zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/realtime/client_secrets", nil)
	handler.HandleCreate(w, r)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var secret api.ClientSecretResponse
	require.NoError(t, json.Unmarshal(data, &secret))

	assert.True(t, strings.HasPrefix(secret.Value, "ek_"))
	assert.True(t, secret.ExpiresAt.After(time.Now()))
	// 省略的字段在响应中已解析为默认值
	assert.Equal(t, types.DefaultModel, secret.Session.Model)
	assert.Equal(t, types.DefaultVoice, secret.Session.Voice)
	assert.Equal(t, types.AudioFormatPCM16, secret.Session.InputAudioFormat)
}

func TestSecretHandler_CreateWithSessionConfig(t *testing.T) {
	registry := newTestRegistry(t)
	handler := NewSecretHandler(registry, nil, zap.NewNop())

	body := `{"session":{"voice":"verse","output_modalities":["text"],"output_audio_format":"g711_ulaw","output_sample_rate":8000}}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/realtime/client_secrets", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	handler.HandleCreate(w, r)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	data, _ := json.Marshal(resp.Data)
	var secret api.ClientSecretResponse
	require.NoError(t, json.Unmarshal(data, &secret))

	assert.Equal(t, "verse", secret.Session.Voice)
	assert.Equal(t, types.AudioFormatG711ULaw, secret.Session.OutputAudioFormat)
	assert.Equal(t, 8000, secret.Session.OutputSampleRate)
	assert.Equal(t, 1, registry.Len())
}

func TestSecretHandler_RejectsBadJSON(t *testing.T) {
	handler := NewSecretHandler(newTestRegistry(t), nil, zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/realtime/client_secrets", strings.NewReader("{nope"))
	handler.HandleCreate(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, string(types.ErrMalformedEvent), resp.Error.Code)
}

func TestSecretHandler_RejectsWrongMethod(t *testing.T) {
	handler := NewSecretHandler(newTestRegistry(t), nil, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleCreate(w, httptest.NewRequest(http.MethodGet, "/v1/realtime/client_secrets", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// =============================================================================
// 🧪 RealtimeHandler 测试（端到端 WebSocket）
// =============================================================================

func TestRealtimeHandler_SecretRedemptionOverWebSocket(t *testing.T) {
	registry := newTestRegistry(t)
	eng := newTestEngine(t, registry)
	handler := NewRealtimeHandler(eng, zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(handler.HandleConnect))
	defer srv.Close()

	secret, err := registry.Issue(types.SessionConfig{Voice: "verse"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/realtime?client_secret=" + secret.Value
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// 第一个事件必须是 session.created
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var created types.Event
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, types.EventSessionCreated, created.Type)
	require.NotNil(t, created.Session)
	assert.Equal(t, "verse", created.Session.Voice)

	// 其次是初始配额快照
	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	var limits types.Event
	require.NoError(t, json.Unmarshal(data, &limits))
	assert.Equal(t, types.EventRateLimitsUpdated, limits.Type)
	require.NotNil(t, limits.RateLimits)
}

func TestRealtimeHandler_BearerHeaderAuth(t *testing.T) {
	registry := newTestRegistry(t)
	eng := newTestEngine(t, registry)
	handler := NewRealtimeHandler(eng, zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(handler.HandleConnect))
	defer srv.Close()

	secret, err := registry.Issue(types.SessionConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/realtime"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Bearer " + secret.Value}},
	})
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var created types.Event
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, types.EventSessionCreated, created.Type)
}

func TestRealtimeHandler_InvalidSecretGetsErrorEvent(t *testing.T) {
	registry := newTestRegistry(t)
	eng := newTestEngine(t, registry)
	handler := NewRealtimeHandler(eng, zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(handler.HandleConnect))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/realtime?client_secret=ek_bogus"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var ev types.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, types.EventError, ev.Type)
	require.NotNil(t, ev.Error)
	assert.Equal(t, types.ErrInvalidSecret, ev.Error.Code)

	// 服务端随后关闭连接
	_, _, err = conn.Read(ctx)
	require.Error(t, err)
}
