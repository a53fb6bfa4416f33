// Package proto defines the wire envelope shared by every JSON-RPC frame
// exchanged between the plugin host and Wox.
package proto

import "encoding/json"

// Type is the envelope's Type field — the wire-visible literal strings are
// part of the external contract and must not change.
type Type string

const (
	TypeRequest   Type = "WOX_JSONRPC_TYPE_REQUEST"
	TypeResponse  Type = "WOX_JSONRPC_TYPE_RESPONSE"
	TypeSystemLog Type = "WOX_JSONRPC_SYSTEM_LOG"
)

// Envelope is the single frame shape carried over the WebSocket in both
// directions. Params/Result/Error are mutually exclusive in practice but
// all three are left as raw/typed fields since the same struct serves
// requests, responses, and log frames.
type Envelope struct {
	Type       Type            `json:"Type"`
	Id         string          `json:"Id,omitempty"`
	Method     string          `json:"Method,omitempty"`
	TraceId    string          `json:"TraceId,omitempty"`
	PluginId   string          `json:"PluginId,omitempty"`
	PluginName string          `json:"PluginName,omitempty"`
	Params     json.RawMessage `json:"Params,omitempty"`
	Result     json.RawMessage `json:"Result,omitempty"`
	Error      string          `json:"Error,omitempty"`

	// Level and Message are only populated on TypeSystemLog frames.
	Level   string `json:"Level,omitempty"`
	Message string `json:"Message,omitempty"`
}

// NewRequest builds a request envelope with params marshaled to JSON.
func NewRequest(id, method, traceId, pluginId, pluginName string, params interface{}) (Envelope, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:       TypeRequest,
		Id:         id,
		Method:     method,
		TraceId:    traceId,
		PluginId:   pluginId,
		PluginName: pluginName,
		Params:     raw,
	}, nil
}

// NewResponse builds a success response envelope carrying result,
// marshaled to JSON.
func NewResponse(id, method, traceId string, result interface{}) (Envelope, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:    TypeResponse,
		Id:      id,
		Method:  method,
		TraceId: traceId,
		Result:  raw,
	}, nil
}

// NewErrorResponse builds a failure response envelope.
func NewErrorResponse(id, method, traceId, errMsg string) Envelope {
	return Envelope{
		Type:    TypeResponse,
		Id:      id,
		Method:  method,
		TraceId: traceId,
		Error:   errMsg,
	}
}

// FrameSink is satisfied by anything capable of emitting a system-log
// frame to the live connection — implemented by internal/wire's Conn and
// consumed by internal/hostlog's Sink. Defined here, in the shared
// low-level package, so both sides reference the identical interface type
// rather than two structurally-equal-but-distinct ones.
type FrameSink interface {
	SendSystemLog(level, traceId, message string) error
}

// NewSystemLog builds a system-log frame.
func NewSystemLog(traceId, level, message string) Envelope {
	return Envelope{
		Type:    TypeSystemLog,
		TraceId: traceId,
		Level:   level,
		Message: message,
	}
}
