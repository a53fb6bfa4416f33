// Package registry implements the plugin registry (C6): the
// plugin-id → PluginInstance table, and the load/init/unload lifecycle
// methods that populate it.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"strings"
	"sync"
	"time"

	woxplugin "github.com/Wox-launcher/wox-plugin-host/sdk/go/woxplugin"
)

// ActionFunc and RefreshFunc alias the SDK's callback types so callers of
// this package never need to import the SDK directly for cache lookups.
type ActionFunc = woxplugin.ActionFunc
type RefreshFunc = woxplugin.RefreshFunc

// Instance is the registry's record for one loaded plugin. It mirrors the
// fields spec.md §3 assigns to PluginInstance; actions/refreshes are rebuilt
// every query per invariant 3.
type Instance struct {
	PluginId   string
	PluginName string
	PluginDir  string
	ModuleName string

	Plugin woxplugin.Plugin
	API    woxplugin.PublicAPI

	mu          sync.Mutex
	actions     map[string]ActionFunc
	refreshes   map[string]RefreshFunc
	formActions map[string]ActionFunc

	// actionSem optionally bounds concurrent detached action-callback
	// goroutines (SPEC_FULL.md §13's action_concurrency_limit). Nil means
	// unbounded, matching spec.md's undocumented-limit default.
	actionSem chan struct{}
}

// SetActionConcurrencyLimit installs a buffered semaphore of size n (n<=0
// means unbounded) gating this instance's detached action callbacks.
func (inst *Instance) SetActionConcurrencyLimit(n int) {
	if n <= 0 {
		inst.actionSem = nil
		return
	}
	inst.actionSem = make(chan struct{}, n)
}

// RunAction launches fn detached from the caller, honoring the configured
// concurrency limit if any. The action frame is still answered immediately
// regardless of whether fn has started running (spec.md §4.7/§5).
func (inst *Instance) RunAction(fn func()) {
	if inst.actionSem == nil {
		go fn()
		return
	}
	go func() {
		inst.actionSem <- struct{}{}
		defer func() { <-inst.actionSem }()
		fn()
	}()
}

// ClearCallbacks wipes actions/refreshes/formActions. Called at the start of
// every query, never at the end of the previous one (spec.md §4.7 step 2,
// §5 ordering guarantees).
func (inst *Instance) ClearCallbacks() {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.actions = make(map[string]ActionFunc)
	inst.refreshes = make(map[string]RefreshFunc)
	inst.formActions = make(map[string]ActionFunc)
}

// InternAction records fn under id, replacing any previous holder of id.
func (inst *Instance) InternAction(id string, fn ActionFunc) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.actions[id] = fn
}

// Action returns the action callback registered under id, if any.
func (inst *Instance) Action(id string) (ActionFunc, bool) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	fn, ok := inst.actions[id]
	return fn, ok
}

// InternRefresh records fn as the refresh callback for a result id.
func (inst *Instance) InternRefresh(resultId string, fn RefreshFunc) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.refreshes[resultId] = fn
}

// Refresh returns the refresh callback registered for a result id, if any.
func (inst *Instance) Refresh(resultId string) (RefreshFunc, bool) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	fn, ok := inst.refreshes[resultId]
	return fn, ok
}

// moduleHandle is the registry's bookkeeping for one loaded Go plugin
// object, standing in for Python's sys.modules entry and sys.path
// insertions. Go's plugin package has no real unload primitive (a loaded
// *plugin.Plugin can never be released from the process), so unload is
// observable only through this virtual table: UnloadPlugin removes the
// entry and the search-path prefixes even though the underlying .so stays
// mapped until process exit. This is called out in SPEC_FULL.md §14.
type moduleHandle struct {
	pluginDir    string
	dependencies string // "" if no dependencies/ sibling existed
	loadedAt     time.Time
}

// Registry is the process-singleton plugin-id → Instance table.
type Registry struct {
	logger *slog.Logger

	mu        sync.Mutex
	instances map[string]*Instance
	modules   map[string]*moduleHandle // keyed by plugin id
	// searchPath records, in load order, every directory prepended for an
	// active plugin — mirroring Python's sys.path mutation so that the
	// unload-time removal (spec.md §4.6) has something concrete to strip.
	searchPath []string

	// dw is the optional dev-convenience directory watcher; nil unless
	// SetDevWatcher is called.
	dw *DevWatcher
}

// New returns an empty registry.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		instances: make(map[string]*Instance),
		modules:   make(map[string]*moduleHandle),
	}
}

// SetDevWatcher installs dw so every LoadPlugin/UnloadPlugin call also
// starts/stops watching the plugin's directory for on-disk changes
// (SPEC_FULL.md §11 — informational only, never triggers a reload).
func (r *Registry) SetDevWatcher(dw *DevWatcher) {
	r.dw = dw
}

// Get returns the instance for pluginId, if loaded.
func (r *Registry) Get(pluginId string) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[pluginId]
	return inst, ok
}

// Len reports the number of currently loaded plugins, used by tests and by
// the debug server's /healthz endpoint.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Snapshot returns a shallow copy of each loaded plugin's id, name,
// directory, module name and API, for the debug server's read-only
// introspection endpoint. The copies carry no callback caches.
func (r *Registry) Snapshot() []Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, Instance{
			PluginId:   inst.PluginId,
			PluginName: inst.PluginName,
			PluginDir:  inst.PluginDir,
			ModuleName: inst.ModuleName,
			API:        inst.API,
		})
	}
	return out
}

// entrySymbol is the exported symbol every plugin's compiled .so must
// expose, equivalent to the Python host.py contract requiring a top-level
// "plugin" attribute on the imported module.
const entrySymbol = "Plugin"

// LoadPlugin implements spec.md §4.6's loadPlugin: search-path bookkeeping,
// module name derivation, and import, binding the result into a new
// Instance with empty callback caches. Refuses to overwrite an existing
// entry with the same id.
func (r *Registry) LoadPlugin(ctx context.Context, pluginId, pluginName, pluginDirectory, entry string) error {
	r.mu.Lock()
	if _, exists := r.instances[pluginId]; exists {
		r.mu.Unlock()
		return fmt.Errorf("registry: plugin %s already loaded", pluginId)
	}
	r.mu.Unlock()

	moduleName := entryToModuleName(pluginDirectory, entry)
	soPath := filepath.Join(pluginDirectory, entry)

	p, err := plugin.Open(soPath)
	if err != nil {
		return fmt.Errorf("registry: importing %s: %w", soPath, err)
	}
	sym, err := p.Lookup(entrySymbol)
	if err != nil {
		return fmt.Errorf("registry: module %s has no %s attribute: %w", moduleName, entrySymbol, err)
	}

	pluginObj, ok := derefPlugin(sym)
	if !ok {
		return fmt.Errorf("registry: module %s's %s attribute does not satisfy the plugin interface", moduleName, entrySymbol)
	}

	dependencies := ""
	if candidate := filepath.Join(pluginDirectory, "dependencies"); dirExists(candidate) {
		dependencies = candidate
	}

	inst := &Instance{
		PluginId:    pluginId,
		PluginName:  pluginName,
		PluginDir:   pluginDirectory,
		ModuleName:  moduleName,
		Plugin:      pluginObj,
		actions:     make(map[string]ActionFunc),
		refreshes:   make(map[string]RefreshFunc),
		formActions: make(map[string]ActionFunc),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.instances[pluginId]; exists {
		return fmt.Errorf("registry: plugin %s already loaded", pluginId)
	}
	r.instances[pluginId] = inst
	r.modules[pluginId] = &moduleHandle{pluginDir: pluginDirectory, dependencies: dependencies, loadedAt: time.Now()}
	prepend := []string{pluginDirectory}
	if dependencies != "" {
		prepend = append([]string{dependencies}, prepend...)
	}
	r.searchPath = append(prepend, r.searchPath...)

	if r.dw != nil {
		r.dw.Add(pluginDirectory)
	}

	r.logger.Info("plugin loaded",
		slog.String("plugin_id", pluginId),
		slog.String("plugin_name", pluginName),
		slog.String("module", moduleName))
	return nil
}

// entryToModuleName converts an Entry relative path (e.g. "pkg/main.py"
// style, here compiled .so paths) into a dotted importable name, mirroring
// jsonrpc.py's load_plugin: strip the extension, replace path separators
// with dots, and prefix with the plugin directory's base name.
func entryToModuleName(pluginDirectory, entry string) string {
	base := filepath.Base(pluginDirectory)
	withoutExt := strings.TrimSuffix(entry, filepath.Ext(entry))
	dotted := strings.ReplaceAll(withoutExt, string(filepath.Separator), ".")
	return base + "." + dotted
}

// derefPlugin adapts whatever the plugin's symbol lookup returned into a
// woxplugin.Plugin, accepting either a value or a pointer to one, since Go
// plugin symbols are commonly exported as package-level variables of either
// shape.
func derefPlugin(sym plugin.Symbol) (woxplugin.Plugin, bool) {
	if p, ok := sym.(woxplugin.Plugin); ok {
		return p, true
	}
	if pp, ok := sym.(*woxplugin.Plugin); ok && pp != nil {
		return *pp, true
	}
	return nil, false
}

// InitPlugin implements spec.md §4.6's init: binds api onto the instance
// and calls the plugin's Init. Failure to init is reported but does not
// remove the instance (it stays partially loaded until UnloadPlugin).
func (r *Registry) InitPlugin(ctx context.Context, pluginId string, api woxplugin.PublicAPI, pluginDirectory string) error {
	inst, ok := r.Get(pluginId)
	if !ok {
		return fmt.Errorf("registry: init: plugin %s not loaded", pluginId)
	}
	inst.API = api
	if err := inst.Plugin.Init(ctx, woxplugin.InitParams{API: api, PluginDirectory: pluginDirectory}); err != nil {
		return fmt.Errorf("registry: init plugin %s: %w", pluginId, err)
	}
	return nil
}

// UnloadPlugin implements spec.md §4.6's unloadPlugin: removes the registry
// entry and the search-path prefixes recorded at load time. Go has no
// symmetric "unimport a package" primitive, so the .so stays resident in
// the process; what is released is the virtual bookkeeping that governs
// whether a later loadPlugin with the same directory is observably fresh.
func (r *Registry) UnloadPlugin(ctx context.Context, pluginId string) error {
	r.mu.Lock()
	inst, ok := r.instances[pluginId]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("registry: unload: plugin %s not loaded", pluginId)
	}
	handle := r.modules[pluginId]
	delete(r.instances, pluginId)
	delete(r.modules, pluginId)
	if handle != nil {
		r.searchPath = removeAll(r.searchPath, handle.pluginDir, handle.dependencies)
		if r.dw != nil {
			r.dw.Remove(handle.pluginDir)
		}
	}
	r.mu.Unlock()

	// The original optional plugin.unload() hook is not called by the host
	// for the plugin's own teardown logic via OnUnload (§4.8, the plugin's
	// own responsibility). What the host does call, as SPEC_FULL.md §13's
	// resolution of Open Question 1, is the Go-specific Unloader capability
	// if the plugin object implements it — bounded so a misbehaving plugin
	// cannot hang unloadPlugin.
	if unloader, ok := inst.Plugin.(woxplugin.Unloader); ok {
		unloadCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		done := make(chan error, 1)
		go func() { done <- unloader.Unload(unloadCtx) }()
		select {
		case err := <-done:
			if err != nil {
				r.logger.Error("plugin Unloader.Unload failed",
					slog.String("plugin_id", pluginId), slog.String("error", err.Error()))
			}
		case <-unloadCtx.Done():
			r.logger.Error("plugin Unloader.Unload timed out, abandoning",
				slog.String("plugin_id", pluginId))
		}
		cancel()
	}

	r.logger.Info("plugin unloaded",
		slog.String("plugin_id", pluginId),
		slog.String("plugin_name", inst.PluginName))
	return nil
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func removeAll(path []string, targets ...string) []string {
	kill := make(map[string]bool, len(targets))
	for _, t := range targets {
		kill[t] = true
	}
	out := path[:0]
	for _, p := range path {
		if !kill[p] {
			out = append(out, p)
		}
	}
	return out
}
