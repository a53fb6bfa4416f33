// Package rpccontext carries the one piece of state every inbound/outbound
// call threads through a stdlib context.Context: the TraceId seeded by the
// dispatch engine from an inbound request (or minted fresh if absent), and
// consumed by the log sink, the method handlers, and the API proxy's
// outbound calls. Defined in its own low-level package so every consumer
// shares the identical context key.
package rpccontext

import "context"

type key struct{}

var traceIdKey key

// WithTraceId returns a context carrying traceId.
func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, traceIdKey, traceId)
}

// TraceId extracts the TraceId stored by WithTraceId, or "" if absent.
func TraceId(ctx context.Context) string {
	v, _ := ctx.Value(traceIdKey).(string)
	return v
}
