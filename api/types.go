package api

import (
	"time"

	"github.com/BaSui01/voicegate/types"
)

// =============================================================================
// 客户端密钥类型
// =============================================================================

// ClientSecretRequest 创建客户端密钥的请求。
// Session 中省略的字段在签发时解析为默认值。
type ClientSecretRequest struct {
	// 会话配置（可省略，全部使用默认值）
	Session *types.SessionConfig `json:"session,omitempty"`
}

// ClientSecretResponse 创建客户端密钥的响应。
type ClientSecretResponse struct {
	// 密钥值（ek_ 前缀），仅在此响应中出现一次
	Value string `json:"value" example:"ek_abc123"`
	// 过期时间
	ExpiresAt time.Time `json:"expires_at"`
	// 解析后的完整会话配置
	Session types.SessionConfig `json:"session"`
}
