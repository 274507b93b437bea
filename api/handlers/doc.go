// Package handlers 实现 VoiceGate 的 HTTP 处理器：客户端密钥签发、
// 实时 WebSocket 接入、健康检查与统一的错误响应格式。
package handlers
