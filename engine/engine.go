package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/conversation"
	"github.com/BaSui01/voicegate/inference"
	"github.com/BaSui01/voicegate/internal/metrics"
	"github.com/BaSui01/voicegate/ratelimit"
	"github.com/BaSui01/voicegate/secrets"
	"github.com/BaSui01/voicegate/toolcall"
	"github.com/BaSui01/voicegate/types"
)

// DefaultDownstreamTimeout bounds one downstream inference call.
const DefaultDownstreamTimeout = 60 * time.Second

// Conn abstracts the persistent duplex channel the engine converses
// over. Implementations must allow a blocked Read to be released by
// ctx cancellation or Close.
type Conn interface {
	// ReadMessage blocks until the next inbound frame, the context is
	// cancelled, or the peer disconnects.
	ReadMessage(ctx context.Context) ([]byte, error)
	// WriteEvent sends one outbound protocol event.
	WriteEvent(ctx context.Context, ev types.Event) error
	// Close releases the connection resource.
	Close() error
}

// Engine is the shared, explicitly constructed service object driving
// all session loops. It is safe for concurrent use: per-session state
// lives in the loop, shared components synchronize per key.
type Engine struct {
	registry    *secrets.Registry
	store       conversation.Store
	limiter     *ratelimit.Limiter
	tools       *toolcall.Engine
	responder   inference.Responder
	transcriber inference.Transcriber
	metrics     *metrics.Collector
	logger      *zap.Logger

	downstreamTimeout time.Duration
	now               func() time.Time
}

// Options configures an Engine. Registry, Store, Limiter, Tools, and
// Responder are required; the rest default sensibly.
type Options struct {
	Registry    *secrets.Registry
	Store       conversation.Store
	Limiter     *ratelimit.Limiter
	Tools       *toolcall.Engine
	Responder   inference.Responder
	Transcriber inference.Transcriber
	Metrics     *metrics.Collector
	Logger      *zap.Logger

	DownstreamTimeout time.Duration
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.DownstreamTimeout
	if timeout <= 0 {
		timeout = DefaultDownstreamTimeout
	}
	return &Engine{
		registry:          opts.Registry,
		store:             opts.Store,
		limiter:           opts.Limiter,
		tools:             opts.Tools,
		responder:         opts.Responder,
		transcriber:       opts.Transcriber,
		metrics:           opts.Metrics,
		logger:            logger.With(zap.String("component", "engine")),
		downstreamTimeout: timeout,
		now:               time.Now,
	}
}
