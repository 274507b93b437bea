// 版权所有 2024 VoiceGate Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供网关 HTTP 服务器的生命周期管理，支持非阻塞启动、
优雅关闭与系统信号监听。

# 概述

本包通过 Manager 封装 net/http.Server，统一管理监听、服务、
关闭与错误传播流程。实时连接（WebSocket）与普通 HTTP 请求共用
同一个监听端口；Run 基于 errgroup 将服务循环与信号监听编排在
一起，收到 SIGINT/SIGTERM 或服务异常时触发优雅停机。

# 核心类型

  - Manager：HTTP 服务器管理器，持有 http.Server 与 net.Listener，
    提供 Start/Run/Shutdown 等生命周期方法。
  - Config：服务器配置，包含监听地址、读写超时、空闲超时与
    优雅关闭超时。

注意：WriteTimeout 不适用于被劫持（hijacked）的 WebSocket 连接，
长连接的存活由协议引擎的读循环控制。
*/
package server
