package pluginapi

import woxplugin "github.com/Wox-launcher/wox-plugin-host/sdk/go/woxplugin"

// The accessors below look up a callback a plugin registered earlier
// through the matching On.../...Stream method, by the callbackId Wox
// echoes back. internal/rpcmethods uses MRURestoreCallback (onMRURestore)
// and LLMStreamCallback (onLLMStream); the Router has no inbound method
// that reads the setting-changed, dynamic-setting, deep-link or unload
// registries, so those callbacks are stored but never invoked.

func (a *API) SettingChangedCallback(id string) (woxplugin.SettingChangedFunc, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn, ok := a.settingChanged[id]
	return fn, ok
}

func (a *API) DynamicSettingCallback(id string) (woxplugin.DynamicSettingFunc, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn, ok := a.dynamicSetting[id]
	return fn, ok
}

func (a *API) DeepLinkCallback(id string) (woxplugin.DeepLinkFunc, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn, ok := a.deepLink[id]
	return fn, ok
}

func (a *API) UnloadCallback(id string) (woxplugin.UnloadFunc, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn, ok := a.unload[id]
	return fn, ok
}

func (a *API) LLMStreamCallback(id string) (woxplugin.ChatStreamFunc, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn, ok := a.llmStream[id]
	return fn, ok
}

func (a *API) MRURestoreCallback(id string) (woxplugin.MRURestoreFunc, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn, ok := a.mruRestore[id]
	return fn, ok
}
