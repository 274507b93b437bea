package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/api/handlers"
	"github.com/BaSui01/voicegate/config"
	"github.com/BaSui01/voicegate/conversation"
	"github.com/BaSui01/voicegate/engine"
	"github.com/BaSui01/voicegate/inference"
	"github.com/BaSui01/voicegate/internal/metrics"
	"github.com/BaSui01/voicegate/internal/server"
	"github.com/BaSui01/voicegate/ratelimit"
	"github.com/BaSui01/voicegate/secrets"
	"github.com/BaSui01/voicegate/toolcall"
	"github.com/BaSui01/voicegate/types"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 VoiceGate 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager *server.Manager

	// 核心组件
	registry  *secrets.Registry
	store     conversation.Store
	limiter   *ratelimit.Limiter
	tools     *toolcall.Engine
	responder inference.Responder
	engine    *engine.Engine

	// 指标
	promRegistry     *prometheus.Registry
	metricsCollector *metrics.Collector

	// Handlers
	healthHandler   *handlers.HealthHandler
	secretHandler   *handlers.SecretHandler
	realtimeHandler *handlers.RealtimeHandler

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Run 装配全部组件并阻塞运行直到收到关闭信号
func (s *Server) Run(ctx context.Context) error {
	if err := s.initComponents(); err != nil {
		return fmt.Errorf("failed to init components: %w", err)
	}
	defer s.closeComponents()

	s.initHandlers()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	s.logger.Info("VoiceGate started",
		zap.String("addr", s.httpManager.Addr()),
		zap.Bool("redis_store", s.cfg.Redis.Enabled),
		zap.String("responder", s.responder.Name()),
	)
	return s.httpManager.Run(ctx)
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initComponents 初始化协议引擎及其全部协作组件
func (s *Server) initComponents() error {
	// 指标收集器
	if s.cfg.Metrics.Enabled {
		s.promRegistry = prometheus.NewRegistry()
		s.metricsCollector = metrics.NewCollector(s.cfg.Metrics.Namespace, s.promRegistry)
	}

	// 客户端密钥注册表
	s.registry = secrets.NewRegistry(s.cfg.Session.SecretTTL, s.logger)

	// 会话历史存储
	if s.cfg.Redis.Enabled {
		store, err := conversation.NewRedisStore(conversation.RedisConfig{
			Addr:       s.cfg.Redis.Addr,
			Password:   s.cfg.Redis.Password,
			DB:         s.cfg.Redis.DB,
			HistoryTTL: s.cfg.Redis.HistoryTTL,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.store = store
	} else {
		s.store = conversation.NewMemoryStore()
	}

	// 每会话固定窗口配额
	s.limiter = ratelimit.New(ratelimit.Limits{
		Requests: s.cfg.RateLimit.Requests,
		Tokens:   s.cfg.RateLimit.Tokens,
		Window:   s.cfg.RateLimit.Window,
	}, s.logger)

	// 函数调用引擎
	s.tools = toolcall.NewEngine(s.cfg.Session.ToolTimeout, s.logger)

	// 下游应答器
	// TODO: wire a real model provider once one is deployed; the
	// scripted responder keeps the gateway self-contained until then.
	s.responder = inference.NewScriptedResponder()

	// 协议引擎
	s.engine = engine.New(engine.Options{
		Registry:          s.registry,
		Store:             s.store,
		Limiter:           s.limiter,
		Tools:             s.tools,
		Responder:         s.responder,
		Metrics:           s.metricsCollector,
		Logger:            s.logger,
		DownstreamTimeout: s.cfg.Session.DownstreamTimeout,
	})
	return nil
}

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.secretHandler = handlers.NewSecretHandler(s.registry, s.metricsCollector, s.logger)
	s.realtimeHandler = handlers.NewRealtimeHandler(s.engine, s.logger)

	// Redis 存储纳入健康检查
	if rs, ok := s.store.(*conversation.RedisStore); ok {
		s.healthHandler.RegisterCheck(rs)
	}
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// 健康检查端点
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)

	// 实时 API 路由
	mux.HandleFunc("/v1/realtime/client_secrets", s.secretHandler.HandleCreate)
	mux.HandleFunc("/v1/realtime", s.realtimeHandler.HandleConnect)

	// Prometheus 指标端点
	if s.promRegistry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
	}

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteSuccess(w, http.StatusOK, map[string]string{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// 构建中间件链
	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}
	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	return s.httpManager.Start()
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

func (s *Server) closeComponents() {
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	if s.registry != nil {
		s.registry.Close()
	}
	if rs, ok := s.store.(*conversation.RedisStore); ok {
		if err := rs.Close(); err != nil {
			s.logger.Warn("failed to close redis store", zap.Error(err))
		}
	}
}

// RegisterTool 注册一个服务端工具，供会话中的函数调用使用
func (s *Server) RegisterTool(schema types.ToolSchema, handler toolcall.Handler) {
	s.tools.Register(schema, handler)
}
