// Copyright (c) VoiceGate Authors.
// Licensed under the MIT License.

/*
Package types 提供 VoiceGate 网关的全局共享类型定义。

# 概述

types 是网关最底层的公共包，不依赖任何内部包，为 engine、codec、
ratelimit、conversation、secrets、toolcall、api 等上层模块提供统一的
类型契约。所有跨包共享的结构体、枚举和错误码均定义于此，以避免循环依赖。

# 核心类型

  - SessionConfig     — 会话配置（model、instructions、output_modalities、tools、persona）
  - Session           — 实时会话（UUID、状态机 created/active/closed）
  - ConversationItem  — 对话条目（role + 有序 content parts，仅追加）
  - ClientSecret      — 一次性客户端密钥（ek_ 前缀，带 TTL）
  - ToolSchema        — 工具定义（name + description + JSON Schema parameters）
  - ToolResult        — 工具执行结果（success/error 标记数据，永不抛出）
  - Event             — 实时协议事件信封（session.created、response.* 等）
  - RateLimitStatus   — 配额快照（剩余请求数 / 剩余 token / 重置秒数）
  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、Retryable 标记

# 主要能力

  - 错误工具链：WrapError / AsError / IsErrorCode / IsRetryable
  - 常用错误构造：NewInvalidSecretError / NewRateLimitError / NewMalformedEventError
  - 配置解析：SessionConfig.ApplyDefaults / Merge（字段缺省永不产生未定义行为）
*/
package types
