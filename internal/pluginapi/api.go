// Package pluginapi implements the public API proxy (C8): the per-plugin
// façade a loaded plugin calls to reach back into Wox, built on the single
// invokeMethod primitive spec.md §4.8 describes.
package pluginapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Wox-launcher/wox-plugin-host/internal/correlation"
	"github.com/Wox-launcher/wox-plugin-host/internal/proto"
	"github.com/Wox-launcher/wox-plugin-host/internal/rpccontext"
	"github.com/Wox-launcher/wox-plugin-host/internal/wire"
	woxplugin "github.com/Wox-launcher/wox-plugin-host/sdk/go/woxplugin"
)

// outboundMethodLog is the method name exempted from the per-call "start
// invoke" log line, since logging every Log call would recurse into the
// frame backend (spec.md §4.8 point 6; plugin_api.py's exemption).
const outboundMethodLog = "Log"

// API is one plugin's PublicAPI proxy. A fresh instance is created at init
// and dropped at unloadPlugin (spec.md §3 PluginInstance.api invariant 2).
type API struct {
	conn       *wire.Conn
	corr       *correlation.Map
	logger     *slog.Logger
	pluginId   string
	pluginName string

	// outboundTimeout bounds invokeMethod's wait when positive
	// (SPEC_FULL.md §13's outbound_call_timeout_ms); 0 means no timeout,
	// matching spec.md §5's documented "a lost response strands the
	// waiter" limitation.
	outboundTimeout time.Duration

	mu             sync.Mutex
	settingChanged map[string]woxplugin.SettingChangedFunc
	dynamicSetting map[string]woxplugin.DynamicSettingFunc
	deepLink       map[string]woxplugin.DeepLinkFunc
	unload         map[string]woxplugin.UnloadFunc
	llmStream      map[string]woxplugin.ChatStreamFunc
	mruRestore     map[string]woxplugin.MRURestoreFunc
	boundInstance  reinterner
}

var _ woxplugin.PublicAPI = (*API)(nil)

// New builds a proxy bound to one plugin's identity, sharing the
// connection and correlation map owned by the wire/dispatch layers.
func New(conn *wire.Conn, corr *correlation.Map, logger *slog.Logger, pluginId, pluginName string) *API {
	return &API{
		conn:           conn,
		corr:           corr,
		logger:         logger,
		pluginId:       pluginId,
		pluginName:     pluginName,
		settingChanged: make(map[string]woxplugin.SettingChangedFunc),
		dynamicSetting: make(map[string]woxplugin.DynamicSettingFunc),
		deepLink:       make(map[string]woxplugin.DeepLinkFunc),
		unload:         make(map[string]woxplugin.UnloadFunc),
		llmStream:      make(map[string]woxplugin.ChatStreamFunc),
		mruRestore:     make(map[string]woxplugin.MRURestoreFunc),
	}
}

// invokeMethod is the single primitive every named outbound call funnels
// through (spec.md §4.8): mint an id, build the envelope, register a
// waiter, send, await.
func (a *API) invokeMethod(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id := correlation.NewRequestId()
	traceId := rpccontext.TraceId(ctx)

	env, err := proto.NewRequest(id, method, traceId, a.pluginId, a.pluginName, params)
	if err != nil {
		return nil, fmt.Errorf("pluginapi: encoding params for %s: %w", method, err)
	}

	if method != outboundMethodLog {
		a.logger.Debug("invoking outbound method",
			slog.String("method", method), slog.String("plugin_id", a.pluginId), slog.String("trace_id", traceId))
	}

	ch := a.corr.Register(id)
	if err := a.conn.Send(ctx, env); err != nil {
		a.corr.Abandon(id)
		return nil, fmt.Errorf("pluginapi: sending %s request: %w", method, err)
	}

	waitCtx := ctx
	if a.outboundTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, a.outboundTimeout)
		defer cancel()
	}

	return a.corr.Wait(waitCtx, id, ch)
}

// SetOutboundTimeout installs the SPEC_FULL.md §13 outbound_call_timeout_ms
// hardening knob for this proxy. d<=0 disables the timeout.
func (a *API) SetOutboundTimeout(d time.Duration) {
	a.outboundTimeout = d
}

// newCallbackId mints a fresh id for a registration method to hand to Wox
// so invocations can be routed back (§4.8: "Registration methods send a
// callbackId so Wox can route back invocations").
func newCallbackId() string {
	return uuid.NewString()
}
