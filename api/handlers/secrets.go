package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/api"
	"github.com/BaSui01/voicegate/internal/metrics"
	"github.com/BaSui01/voicegate/secrets"
	"github.com/BaSui01/voicegate/types"
)

// =============================================================================
// 🔑 客户端密钥 Handler
// =============================================================================

// SecretHandler 客户端密钥签发处理器
type SecretHandler struct {
	registry *secrets.Registry
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewSecretHandler 创建密钥处理器
func NewSecretHandler(registry *secrets.Registry, collector *metrics.Collector, logger *zap.Logger) *SecretHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecretHandler{
		registry: registry,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "secret_handler")),
	}
}

// HandleCreate 处理客户端密钥创建请求
// @Summary 创建客户端密钥
// @Description 签发一次性、短时效的客户端密钥，绑定解析后的会话配置
// @Tags realtime
// @Accept json
// @Produce json
// @Param request body api.ClientSecretRequest false "会话配置"
// @Success 201 {object} Response "密钥响应"
// @Failure 400 {object} Response "无效请求"
// @Router /v1/realtime/client_secrets [post]
func (h *SecretHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, types.NewError(types.ErrMalformedEvent, "method not allowed").
			WithHTTPStatus(http.StatusMethodNotAllowed), nil)
		return
	}

	var req api.ClientSecretRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	config := types.SessionConfig{}
	if req.Session != nil {
		config = *req.Session
	}

	secret, err := h.registry.Issue(config)
	if err != nil {
		appErr, ok := types.AsError(err)
		if !ok {
			appErr = types.WrapError(types.ErrInternalError, "failed to issue client secret", err)
		}
		WriteError(w, appErr, h.logger)
		return
	}

	h.metrics.SecretIssued()
	h.logger.Info("client secret issued",
		zap.String("model", secret.Config.Model),
		zap.Time("expires_at", secret.ExpiresAt),
	)

	WriteSuccess(w, http.StatusCreated, api.ClientSecretResponse{
		Value:     secret.Value,
		ExpiresAt: secret.ExpiresAt,
		Session:   secret.Config,
	})
}
