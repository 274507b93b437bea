package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/types"
)

// DefaultExecuteTimeout bounds a single handler invocation.
const DefaultExecuteTimeout = 30 * time.Second

// Handler is an arbitrary registered callable. It receives the named
// arguments matching the registered schema and returns a
// JSON-serializable result or an error.
type Handler func(ctx context.Context, args map[string]any) (any, error)

type registration struct {
	schema  types.ToolSchema
	handler Handler
}

// Engine is a thread-safe tool registry with validation and isolated
// execution.
type Engine struct {
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.RWMutex
	tools map[string]registration
}

// NewEngine creates an empty Engine. A non-positive timeout falls back
// to DefaultExecuteTimeout.
func NewEngine(timeout time.Duration, logger *zap.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultExecuteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		timeout: timeout,
		logger:  logger.With(zap.String("component", "toolcall")),
		tools:   make(map[string]registration),
	}
}

// Register stores a tool under schema.Name. Re-registering a name
// overwrites the prior entry: last write wins, by policy.
func (e *Engine) Register(schema types.ToolSchema, handler Handler) {
	e.mu.Lock()
	if _, exists := e.tools[schema.Name]; exists {
		e.logger.Warn("tool re-registered, prior entry replaced", zap.String("tool", schema.Name))
	}
	e.tools[schema.Name] = registration{schema: schema, handler: handler}
	e.mu.Unlock()
}

// Schemas returns the registered tool schemas sorted by name.
func (e *Engine) Schemas() []types.ToolSchema {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]types.ToolSchema, 0, len(e.tools))
	for _, reg := range e.tools {
		out = append(out, reg.schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks the call against the registered schema without
// executing anything: the tool must exist, every required parameter
// must be present, and no argument may fall outside the declared
// properties.
func (e *Engine) Validate(name string, args map[string]any) error {
	e.mu.RLock()
	reg, ok := e.tools[name]
	e.mu.RUnlock()
	if !ok {
		return types.NewError(types.ErrFunctionNotFound, "Function not found").WithParam(name)
	}

	for _, required := range reg.schema.Parameters.Required {
		if _, present := args[required]; !present {
			return types.NewError(types.ErrMissingParameter,
				fmt.Sprintf("Missing required parameter: %s", required)).WithParam(required)
		}
	}
	for arg := range args {
		if _, known := reg.schema.Parameters.Properties[arg]; !known {
			return types.NewError(types.ErrUnknownParameter,
				fmt.Sprintf("Unknown parameter: %s", arg)).WithParam(arg)
		}
	}
	return nil
}

// Execute looks up and invokes the handler, converting every fault —
// unknown name, handler error, panic, timeout — into a ToolResult
// instead of letting it escape.
func (e *Engine) Execute(ctx context.Context, name string, args map[string]any) types.ToolResult {
	start := time.Now()

	e.mu.RLock()
	reg, ok := e.tools[name]
	e.mu.RUnlock()
	if !ok {
		return types.ToolResult{Name: name, Success: false, Error: "Function not found"}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("handler panic: %v", rec)}
			}
		}()
		value, err := reg.handler(ctx, args)
		done <- outcome{value: value, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = outcome{err: ctx.Err()}
	}
	duration := time.Since(start)

	if out.err != nil {
		e.logger.Debug("tool execution failed",
			zap.String("tool", name),
			zap.Duration("duration", duration),
			zap.Error(out.err))
		return types.ToolResult{Name: name, Success: false, Error: out.err.Error(), Duration: duration}
	}

	payload, err := json.Marshal(out.value)
	if err != nil {
		return types.ToolResult{Name: name, Success: false, Error: fmt.Sprintf("result not serializable: %v", err), Duration: duration}
	}
	return types.ToolResult{Name: name, Success: true, Result: payload, Duration: duration}
}
