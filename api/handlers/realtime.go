package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/engine"
	"github.com/BaSui01/voicegate/types"
)

// =============================================================================
// 🔌 实时 WebSocket Handler
// =============================================================================

// RealtimeHandler 实时会话接入处理器
type RealtimeHandler struct {
	engine *engine.Engine
	logger *zap.Logger

	// OriginPatterns 透传给 websocket.Accept；为空时仅允许同源
	OriginPatterns []string
}

// NewRealtimeHandler 创建实时处理器
func NewRealtimeHandler(eng *engine.Engine, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeHandler{
		engine: eng,
		logger: logger.With(zap.String("component", "realtime_handler")),
	}
}

// HandleConnect 处理 WebSocket 升级并把连接交给协议引擎
// @Summary 实时会话接入
// @Description 升级为 WebSocket 并以一次性客户端密钥兑换会话
// @Tags realtime
// @Router /v1/realtime [get]
func (h *RealtimeHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	secret := bearerSecret(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	// 音频增量是大块 base64 文本，默认 32KiB 上限不够
	conn.SetReadLimit(1 << 20)

	if err := h.engine.HandleConnection(r.Context(), newWSConn(conn, h.logger), secret); err != nil {
		h.logger.Debug("realtime connection rejected", zap.Error(err))
	}
}

// bearerSecret 从 Authorization 头或 client_secret 查询参数提取密钥
func bearerSecret(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("client_secret")
}

// =============================================================================
// 🔄 WebSocket 连接适配器
// =============================================================================

// wsConn 将 coder/websocket 连接适配为 engine.Conn 接口。
// 写操作通过 mutex 保护，因为 WebSocket 不支持并发写。
type wsConn struct {
	conn   *websocket.Conn
	logger *zap.Logger
	mu     sync.Mutex // 保护写操作
	closed bool
}

func newWSConn(conn *websocket.Conn, logger *zap.Logger) *wsConn {
	return &wsConn{conn: conn, logger: logger}
}

// ReadMessage 读取一个文本帧
func (w *wsConn) ReadMessage(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("websocket read: %w", err)
	}
	return data, nil
}

// WriteEvent 将事件序列化为 JSON 并作为文本帧发送
func (w *wsConn) WriteEvent(ctx context.Context, ev types.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("connection closed")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := w.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// Close 关闭 WebSocket 连接
func (w *wsConn) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.conn.Close(websocket.StatusNormalClosure, "closing")
}
