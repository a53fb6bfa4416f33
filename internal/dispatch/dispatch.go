// Package dispatch implements the dispatch engine (C5): per-frame
// classification into request/response, routing of requests to method
// handlers, and completion of outbound waiters from response frames.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Wox-launcher/wox-plugin-host/internal/correlation"
	"github.com/Wox-launcher/wox-plugin-host/internal/proto"
	"github.com/Wox-launcher/wox-plugin-host/internal/rpccontext"
	"github.com/Wox-launcher/wox-plugin-host/internal/wire"
)

// Router handles one inbound request method, returning a JSON-encodable
// result or an error. Implemented by internal/rpcmethods.
type Router interface {
	Handle(ctx context.Context, conn *wire.Conn, method string, params json.RawMessage, pluginId, pluginName string) (interface{}, error)
}

// Engine is the dispatch engine bound to one connection's lifetime (a
// fresh Engine per accepted connection would also work; the host accepts
// one connection at a time per spec.md §4.3, so a single shared Engine
// wired to the current connection's correlation map is equivalent).
type Engine struct {
	router Router
	corr   *correlation.Map
	logger *slog.Logger
}

var _ wire.Dispatcher = (*Engine)(nil)

// New builds an Engine routing requests through router and completing
// response waiters in corr.
func New(router Router, corr *correlation.Map, logger *slog.Logger) *Engine {
	return &Engine{router: router, corr: corr, logger: logger}
}

// Dispatch implements wire.Dispatcher. It never blocks the read loop: wire
// already calls this in its own goroutine per frame (spec.md §4.3, §5).
func (e *Engine) Dispatch(ctx context.Context, conn *wire.Conn, env proto.Envelope) {
	switch env.Type {
	case proto.TypeResponse:
		e.dispatchResponse(env)
	case proto.TypeRequest:
		e.dispatchRequest(ctx, conn, env)
	default:
		e.logger.Error("unknown envelope type received", slog.String("type", string(env.Type)))
	}
}

func (e *Engine) dispatchResponse(env proto.Envelope) {
	result := correlation.Result{Value: env.Result, Err: env.Error}
	if !e.corr.Complete(env.Id, result) {
		e.logger.Error("response with no matching outstanding request",
			slog.String("id", env.Id), slog.String("method", env.Method))
	}
}

func (e *Engine) dispatchRequest(ctx context.Context, conn *wire.Conn, env proto.Envelope) {
	traceId := env.TraceId
	if traceId == "" {
		traceId = uuid.NewString()
	}
	reqCtx := rpccontext.WithTraceId(ctx, traceId)
	logger := e.logger.With(slog.String("trace_id", traceId))

	result, err := e.invoke(reqCtx, logger, conn, env)

	var resp proto.Envelope
	if err != nil {
		logger.Error("method handler failed",
			slog.String("method", env.Method), slog.String("error", err.Error()))
		resp = proto.NewErrorResponse(env.Id, env.Method, traceId, err.Error())
	} else {
		cleaned := CleanForSerialization(result)
		built, marshalErr := proto.NewResponse(env.Id, env.Method, traceId, cleaned)
		if marshalErr != nil {
			logger.Error("failed to encode method result",
				slog.String("method", env.Method), slog.String("error", marshalErr.Error()))
			resp = proto.NewErrorResponse(env.Id, env.Method, traceId, marshalErr.Error())
		} else {
			resp = built
		}
	}

	if sendErr := conn.Send(ctx, resp); sendErr != nil {
		logger.Error("failed to send response frame",
			slog.String("method", env.Method), slog.String("error", sendErr.Error()))
	}
}

// invoke calls the router, converting a panic inside a handler into an
// error response rather than crashing the host — the handler-level
// try/catch spec.md §4.7 requires, applied at the single point every
// handler funnels through.
func (e *Engine) invoke(ctx context.Context, logger *slog.Logger, conn *wire.Conn, env proto.Envelope) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("method handler panicked",
				slog.String("method", env.Method), slog.Any("panic", r))
			err = fmt.Errorf("method handler panicked: %v", r)
		}
	}()
	return e.router.Handle(ctx, conn, env.Method, env.Params, env.PluginId, env.PluginName)
}

