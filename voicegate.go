// Package voicegate provides a top-level convenience entry point for
// embedding the realtime gateway with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/voicegate"
//
//	gw, err := voicegate.New()
//	gw, err := voicegate.New(voicegate.WithResponder(myResponder))
//	gw, err := voicegate.New(voicegate.WithRedisHistory("localhost:6379"))
//
// A Gateway bundles the protocol engine with its collaborators (secret
// registry, conversation store, rate limiter, tool registry) so a host
// application can issue secrets and serve connections without wiring
// each component by hand. The voicegate server binary in cmd/voicegate
// does the same assembly with full configuration control.
package voicegate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/conversation"
	"github.com/BaSui01/voicegate/engine"
	"github.com/BaSui01/voicegate/inference"
	"github.com/BaSui01/voicegate/ratelimit"
	"github.com/BaSui01/voicegate/secrets"
	"github.com/BaSui01/voicegate/toolcall"
	"github.com/BaSui01/voicegate/types"
)

// Gateway bundles the protocol engine and its collaborators.
type Gateway struct {
	Engine   *engine.Engine
	Registry *secrets.Registry
	Store    conversation.Store
	Limiter  *ratelimit.Limiter
	Tools    *toolcall.Engine
}

type settings struct {
	logger    *zap.Logger
	responder inference.Responder
	store     conversation.Store
	limits    ratelimit.Limits
	secretTTL time.Duration
	redisAddr string
}

// Option configures the gateway created by [New].
type Option func(*settings)

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithResponder sets the downstream responder that generates replies.
func WithResponder(r inference.Responder) Option {
	return func(s *settings) { s.responder = r }
}

// WithStore sets a custom conversation store.
func WithStore(store conversation.Store) Option {
	return func(s *settings) { s.store = store }
}

// WithRedisHistory stores conversation history in redis at addr.
func WithRedisHistory(addr string) Option {
	return func(s *settings) { s.redisAddr = addr }
}

// WithLimits overrides the per-session rate limit quota.
func WithLimits(limits ratelimit.Limits) Option {
	return func(s *settings) { s.limits = limits }
}

// WithSecretTTL overrides the client secret lifetime.
func WithSecretTTL(ttl time.Duration) Option {
	return func(s *settings) { s.secretTTL = ttl }
}

// New assembles a Gateway with usable defaults: in-memory history,
// the scripted responder, and the reference free-tier quota.
func New(opts ...Option) (*Gateway, error) {
	s := settings{
		limits:    ratelimit.DefaultLimits(),
		secretTTL: secrets.DefaultTTL,
	}
	for _, opt := range opts {
		opt(&s)
	}

	store := s.store
	if store == nil && s.redisAddr != "" {
		redisStore, err := conversation.NewRedisStore(conversation.RedisConfig{
			Addr:       s.redisAddr,
			HistoryTTL: conversation.DefaultRedisConfig().HistoryTTL,
		}, s.logger)
		if err != nil {
			return nil, err
		}
		store = redisStore
	}
	if store == nil {
		store = conversation.NewMemoryStore()
	}

	responder := s.responder
	if responder == nil {
		responder = inference.NewScriptedResponder()
	}

	gw := &Gateway{
		Registry: secrets.NewRegistry(s.secretTTL, s.logger),
		Store:    store,
		Limiter:  ratelimit.New(s.limits, s.logger),
		Tools:    toolcall.NewEngine(toolcall.DefaultExecuteTimeout, s.logger),
	}
	gw.Engine = engine.New(engine.Options{
		Registry:  gw.Registry,
		Store:     gw.Store,
		Limiter:   gw.Limiter,
		Tools:     gw.Tools,
		Responder: responder,
		Logger:    s.logger,
	})
	return gw, nil
}

// IssueSecret mints a one-time client secret for the given session
// configuration; omitted fields resolve to defaults.
func (g *Gateway) IssueSecret(config types.SessionConfig) (types.ClientSecret, error) {
	return g.Registry.Issue(config)
}

// RegisterTool registers a server-side tool available to every session.
func (g *Gateway) RegisterTool(schema types.ToolSchema, handler toolcall.Handler) {
	g.Tools.Register(schema, handler)
}

// ServeConn drives one connection through its session lifecycle.
func (g *Gateway) ServeConn(ctx context.Context, conn engine.Conn, secret string) error {
	return g.Engine.HandleConnection(ctx, conn, secret)
}

// Close releases background resources held by the gateway.
func (g *Gateway) Close() error {
	g.Registry.Close()
	if rs, ok := g.Store.(*conversation.RedisStore); ok {
		return rs.Close()
	}
	return nil
}
