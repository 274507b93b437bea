// Copyright (c) VoiceGate Authors.
// Licensed under the MIT License.

/*
Package main 提供 VoiceGate 服务端程序入口。

# 概述

cmd/voicegate 是实时语音会话网关的可执行入口，提供 HTTP API 与
WebSocket 实时协议服务、健康检查和版本查询等子命令。程序支持
YAML 配置文件加载、结构化日志（zap）与 Prometheus 指标采集。

# 核心类型

  - Server        — 主服务器，装配协议引擎与全部组件并管理优雅关闭
  - Middleware    — HTTP 中间件函数签名 func(http.Handler) http.Handler

# 子命令

  - serve    启动网关服务
  - version  显示版本信息
  - health   对运行中的实例做健康检查
*/
package main
