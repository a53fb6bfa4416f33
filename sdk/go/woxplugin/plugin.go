package woxplugin

import "context"

// InitParams is passed to Plugin.Init.
type InitParams struct {
	API           PublicAPI
	PluginDirectory string
}

// Plugin is the capability every Wox plugin module must expose as a
// package-level `var Plugin woxplugin.Plugin` symbol (see
// internal/registry for how the host loads it via plugin.Open/Lookup).
type Plugin interface {
	Init(ctx context.Context, params InitParams) error
	Query(ctx context.Context, query Query) []Result
}

// Unloader is an optional capability a Plugin may additionally implement.
// If present, the registry invokes it (under a bounded timeout) during
// unloadPlugin — see SPEC_FULL.md §13, resolving spec.md Open Question 1.
type Unloader interface {
	Unload(ctx context.Context) error
}
