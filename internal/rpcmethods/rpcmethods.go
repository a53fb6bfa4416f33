// Package rpcmethods implements the method handlers (C7): the typed
// adapters from JSON-RPC params to the registry (C6) and plugin calls,
// routed here by the dispatch engine (C5).
package rpcmethods

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Wox-launcher/wox-plugin-host/internal/correlation"
	"github.com/Wox-launcher/wox-plugin-host/internal/pluginapi"
	"github.com/Wox-launcher/wox-plugin-host/internal/registry"
	"github.com/Wox-launcher/wox-plugin-host/internal/rpccontext"
	"github.com/Wox-launcher/wox-plugin-host/internal/wire"
	woxplugin "github.com/Wox-launcher/wox-plugin-host/sdk/go/woxplugin"
)

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Hardening holds the optional knobs SPEC_FULL.md §13 adds on top of
// unmodified spec.md behavior. Zero values preserve the original semantics.
type Hardening struct {
	ActionConcurrencyLimit int
	OutboundCallTimeoutMs  int
}

// Router implements dispatch.Router, dispatching the eight inbound method
// names to their handlers. It holds no connection state of its own: the
// wire layer accepts one connection at a time and hands the live *wire.Conn
// to Handle on every call, which is what init binds into each plugin's API
// proxy (spec.md §4.3).
type Router struct {
	reg       *registry.Registry
	corr      *correlation.Map
	logger    *slog.Logger
	hardening Hardening
}

// New builds a Router over the process-wide plugin registry and
// correlation map.
func New(reg *registry.Registry, corr *correlation.Map, logger *slog.Logger, hardening Hardening) *Router {
	return &Router{reg: reg, corr: corr, logger: logger, hardening: hardening}
}

// loggerFor binds the request's TraceId onto r.logger so handler-level log
// lines carry the same trace_id as the dispatch-level ones (spec.md §4.7).
func (r *Router) loggerFor(ctx context.Context) *slog.Logger {
	return r.logger.With(slog.String("trace_id", rpccontext.TraceId(ctx)))
}

// Handle implements dispatch.Router.
func (r *Router) Handle(ctx context.Context, conn *wire.Conn, method string, params json.RawMessage, pluginId, pluginName string) (interface{}, error) {
	switch method {
	case "loadPlugin":
		return r.loadPlugin(ctx, params, pluginId, pluginName)
	case "init":
		return r.init(ctx, conn, params, pluginId, pluginName)
	case "query":
		return r.query(ctx, params, pluginId)
	case "action":
		return r.action(ctx, params, pluginId)
	case "refresh":
		return r.refresh(ctx, params, pluginId)
	case "unloadPlugin":
		return r.unloadPlugin(ctx, params, pluginId)
	case "onMRURestore":
		return r.onMRURestore(ctx, params, pluginId)
	case "onLLMStream":
		return r.onLLMStream(ctx, params, pluginId)
	default:
		return nil, fmt.Errorf("unknown method handler: %s", method)
	}
}

func (r *Router) loadPlugin(ctx context.Context, params json.RawMessage, pluginId, pluginName string) (interface{}, error) {
	var p struct {
		PluginDirectory string `json:"PluginDirectory"`
		Entry           string `json:"Entry"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("loadPlugin: decoding params: %w", err)
	}
	if err := r.reg.LoadPlugin(ctx, pluginId, pluginName, p.PluginDirectory, p.Entry); err != nil {
		return nil, err
	}
	if r.hardening.ActionConcurrencyLimit > 0 {
		if inst, ok := r.reg.Get(pluginId); ok {
			inst.SetActionConcurrencyLimit(r.hardening.ActionConcurrencyLimit)
		}
	}
	return nil, nil
}

func (r *Router) init(ctx context.Context, conn *wire.Conn, params json.RawMessage, pluginId, pluginName string) (interface{}, error) {
	var p struct {
		PluginDirectory string `json:"PluginDirectory"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("init: decoding params: %w", err)
	}

	inst, ok := r.reg.Get(pluginId)
	if !ok {
		return nil, fmt.Errorf("init: plugin %s not loaded", pluginId)
	}

	api := pluginapi.New(conn, r.corr, r.logger, pluginId, pluginName)
	if r.hardening.OutboundCallTimeoutMs > 0 {
		api.SetOutboundTimeout(msToDuration(r.hardening.OutboundCallTimeoutMs))
	}
	api.BindInstance(inst)

	if err := r.reg.InitPlugin(ctx, pluginId, api, p.PluginDirectory); err != nil {
		return nil, err
	}
	return nil, nil
}

func (r *Router) unloadPlugin(ctx context.Context, params json.RawMessage, pluginId string) (interface{}, error) {
	if err := r.reg.UnloadPlugin(ctx, pluginId); err != nil {
		return nil, err
	}
	return nil, nil
}

// wireQuery mirrors the over-the-wire query params: Selection and Env
// arrive as stringified JSON rather than nested objects (spec.md §4.7).
type wireQuery struct {
	Type           string `json:"Type"`
	RawQuery       string `json:"RawQuery"`
	TriggerKeyword string `json:"TriggerKeyword"`
	Command        string `json:"Command"`
	Search         string `json:"Search"`
	Selection      string `json:"Selection"`
	Env            string `json:"Env"`
	QueryId        string `json:"QueryId"`
}

func (r *Router) query(ctx context.Context, params json.RawMessage, pluginId string) (interface{}, error) {
	var wq wireQuery
	if err := json.Unmarshal(params, &wq); err != nil {
		return nil, fmt.Errorf("query: decoding params: %w", err)
	}

	inst, ok := r.reg.Get(pluginId)
	if !ok {
		return nil, fmt.Errorf("query: plugin %s not loaded", pluginId)
	}

	var selection woxplugin.Selection
	if wq.Selection != "" {
		if err := json.Unmarshal([]byte(wq.Selection), &selection); err != nil {
			return nil, fmt.Errorf("query: decoding Selection: %w", err)
		}
	}
	var env woxplugin.QueryEnv
	if wq.Env != "" {
		if err := json.Unmarshal([]byte(wq.Env), &env); err != nil {
			return nil, fmt.Errorf("query: decoding Env: %w", err)
		}
	}

	query := woxplugin.Query{
		Type:           woxplugin.QueryType(wq.Type),
		RawQuery:       wq.RawQuery,
		TriggerKeyword: wq.TriggerKeyword,
		Command:        wq.Command,
		Search:         wq.Search,
		Selection:      selection,
		Env:            env,
	}

	// Clear caches before invoking the plugin — stale callbacks from an
	// earlier query must never be invocable against this one's ids
	// (spec.md §4.7 step 2, invariant 3).
	inst.ClearCallbacks()

	results := inst.Plugin.Query(ctx, query)

	for i := range results {
		if results[i].Id == "" {
			results[i].Id = correlation.NewRequestId()
		}
		for j := range results[i].Actions {
			action := &results[i].Actions[j]
			if action.Action == nil {
				continue
			}
			if action.Id == "" {
				action.Id = correlation.NewRequestId()
			}
			inst.InternAction(action.Id, action.Action)
		}
		if results[i].RefreshInterval > 0 && results[i].OnRefresh != nil {
			inst.InternRefresh(results[i].Id, results[i].OnRefresh)
		}
	}

	return results, nil
}

func (r *Router) action(ctx context.Context, params json.RawMessage, pluginId string) (interface{}, error) {
	var p struct {
		ResultId       string `json:"ResultId"`
		ActionId       string `json:"ActionId"`
		ResultActionId string `json:"ResultActionId"`
		ContextData    string `json:"ContextData"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("action: decoding params: %w", err)
	}

	inst, ok := r.reg.Get(pluginId)
	if !ok {
		return nil, fmt.Errorf("action: plugin %s not loaded", pluginId)
	}

	fn, ok := inst.Action(p.ActionId)
	if !ok {
		r.loggerFor(ctx).Error("action callback not found", slog.String("action_id", p.ActionId), slog.String("plugin_id", pluginId))
		return nil, nil
	}

	actionCtx := woxplugin.ActionContext{
		ResultId:       p.ResultId,
		ResultActionId: p.ResultActionId,
		ContextData:    p.ContextData,
	}
	// Detached: the action frame is answered immediately regardless of how
	// long the callback takes, and it is never cancellable (spec.md §4.7,
	// §5).
	inst.RunAction(func() { fn(context.Background(), actionCtx) })

	return nil, nil
}

func (r *Router) refresh(ctx context.Context, params json.RawMessage, pluginId string) (interface{}, error) {
	var p struct {
		ResultId          string                    `json:"ResultId"`
		RefreshableResult woxplugin.RefreshableResult `json:"RefreshableResult"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("refresh: decoding params: %w", err)
	}

	inst, ok := r.reg.Get(pluginId)
	if !ok {
		return nil, fmt.Errorf("refresh: plugin %s not loaded", pluginId)
	}

	// Restore each action callback by looking its id up in the action
	// cache — the callable itself was stripped on the wire (spec.md §4.7).
	for i := range p.RefreshableResult.Actions {
		if fn, found := inst.Action(p.RefreshableResult.Actions[i].Id); found {
			p.RefreshableResult.Actions[i].Action = fn
		}
	}

	refreshFn, ok := inst.Refresh(p.ResultId)
	if !ok {
		return nil, fmt.Errorf("refresh: no refresh function registered for result %s", p.ResultId)
	}

	updated := refreshFn(ctx, p.RefreshableResult)

	for i := range updated.Actions {
		action := &updated.Actions[i]
		if action.Action == nil {
			continue
		}
		if action.Id == "" {
			action.Id = correlation.NewRequestId()
		}
		inst.InternAction(action.Id, action.Action)
	}

	return updated, nil
}

func (r *Router) onMRURestore(ctx context.Context, params json.RawMessage, pluginId string) (interface{}, error) {
	var p struct {
		CallbackId string              `json:"callbackId"`
		MRUData    woxplugin.MRUData   `json:"mruData"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("onMRURestore: decoding params: %w", err)
	}

	inst, ok := r.reg.Get(pluginId)
	if !ok {
		return nil, fmt.Errorf("onMRURestore: plugin %s not loaded", pluginId)
	}
	api, ok := inst.API.(*pluginapi.API)
	if !ok || api == nil {
		return nil, fmt.Errorf("onMRURestore: plugin %s has no initialized API", pluginId)
	}
	fn, ok := api.MRURestoreCallback(p.CallbackId)
	if !ok {
		return nil, fmt.Errorf("onMRURestore: no callback registered for id %s", p.CallbackId)
	}

	result, err := fn(ctx, p.MRUData)
	if err != nil {
		return nil, fmt.Errorf("onMRURestore: callback failed: %w", err)
	}
	return result, nil
}

func (r *Router) onLLMStream(ctx context.Context, params json.RawMessage, pluginId string) (interface{}, error) {
	var p struct {
		CallbackId string                        `json:"CallbackId"`
		StreamType woxplugin.ChatStreamDataType  `json:"StreamType"`
		Data       string                        `json:"Data"`
		Reasoning  string                        `json:"Reasoning"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("onLLMStream: decoding params: %w", err)
	}

	inst, ok := r.reg.Get(pluginId)
	if !ok {
		return nil, fmt.Errorf("onLLMStream: plugin %s not loaded", pluginId)
	}
	api, ok := inst.API.(*pluginapi.API)
	if !ok || api == nil {
		return nil, fmt.Errorf("onLLMStream: plugin %s has no initialized API", pluginId)
	}
	fn, ok := api.LLMStreamCallback(p.CallbackId)
	if !ok {
		return nil, fmt.Errorf("onLLMStream: no callback registered for id %s", p.CallbackId)
	}

	// Fire-and-forward: never awaits (spec.md §4.7).
	go fn(context.Background(), p.StreamType, p.Data, p.Reasoning)

	return nil, nil
}
