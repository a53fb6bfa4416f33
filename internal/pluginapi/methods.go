package pluginapi

import (
	"context"
	"encoding/json"

	woxplugin "github.com/Wox-launcher/wox-plugin-host/sdk/go/woxplugin"
)

// call is a tiny helper around invokeMethod for the common case of a
// method whose result is decoded into a typed value; passing out == nil
// discards the raw bytes for methods that return nothing meaningful.
func (a *API) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	raw, err := a.invokeMethod(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil || raw == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (a *API) ChangeQuery(ctx context.Context, query woxplugin.ChangeQueryParam) error {
	return a.call(ctx, "ChangeQuery", query, nil)
}

func (a *API) HideApp(ctx context.Context) error {
	return a.call(ctx, "HideApp", struct{}{}, nil)
}

func (a *API) ShowApp(ctx context.Context) error {
	return a.call(ctx, "ShowApp", struct{}{}, nil)
}

func (a *API) IsVisible(ctx context.Context) (bool, error) {
	var visible bool
	err := a.call(ctx, "IsVisible", struct{}{}, &visible)
	return visible, err
}

// Notify implements PublicAPI.Notify with the exact wire param shape
// plugin_api.py's notify() builds: {"message": message}.
func (a *API) Notify(ctx context.Context, message string) error {
	return a.call(ctx, "Notify", map[string]string{"message": message}, nil)
}

// Log implements PublicAPI.Log. Params shape per plugin_api.py: {"level":
// level, "msg": msg}. invokeMethod exempts this method name from the
// per-call trace log line to avoid log-of-a-log feedback.
func (a *API) Log(ctx context.Context, level, msg string) error {
	return a.call(ctx, "Log", map[string]string{"level": level, "msg": msg}, nil)
}

func (a *API) GetTranslation(ctx context.Context, key string) (string, error) {
	var translation string
	err := a.call(ctx, "GetTranslation", map[string]string{"key": key}, &translation)
	return translation, err
}

func (a *API) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := a.call(ctx, "GetSetting", map[string]string{"key": key}, &value)
	return value, err
}

func (a *API) SaveSetting(ctx context.Context, key, value string, isPlatformSpecific bool) error {
	params := map[string]interface{}{
		"key":                key,
		"value":              value,
		"isPlatformSpecific": isPlatformSpecific,
	}
	return a.call(ctx, "SaveSetting", params, nil)
}

func (a *API) OnSettingChanged(ctx context.Context, callback woxplugin.SettingChangedFunc) error {
	id := newCallbackId()
	a.mu.Lock()
	a.settingChanged[id] = callback
	a.mu.Unlock()
	return a.call(ctx, "OnSettingChanged", map[string]string{"callbackId": id}, nil)
}

func (a *API) OnGetDynamicSetting(ctx context.Context, callback woxplugin.DynamicSettingFunc) error {
	id := newCallbackId()
	a.mu.Lock()
	a.dynamicSetting[id] = callback
	a.mu.Unlock()
	return a.call(ctx, "OnGetDynamicSetting", map[string]string{"callbackId": id}, nil)
}

func (a *API) OnDeepLink(ctx context.Context, callback woxplugin.DeepLinkFunc) error {
	id := newCallbackId()
	a.mu.Lock()
	a.deepLink[id] = callback
	a.mu.Unlock()
	return a.call(ctx, "OnDeepLink", map[string]string{"callbackId": id}, nil)
}

func (a *API) OnUnload(ctx context.Context, callback woxplugin.UnloadFunc) error {
	id := newCallbackId()
	a.mu.Lock()
	a.unload[id] = callback
	a.mu.Unlock()
	return a.call(ctx, "OnUnload", map[string]string{"callbackId": id}, nil)
}

// RegisterQueryCommands double-encodes commands into a JSON string before
// placing it in Params, matching plugin_api.py's
// {"commands": json.dumps([...])} shape exactly (SPEC_FULL.md §12 item 3) —
// it is not sent as a nested JSON array.
func (a *API) RegisterQueryCommands(ctx context.Context, commands []woxplugin.MetadataCommand) error {
	encoded, err := json.Marshal(commands)
	if err != nil {
		return err
	}
	return a.call(ctx, "RegisterQueryCommands", map[string]string{"commands": string(encoded)}, nil)
}

// LLMStream registers callback under a fresh id and double-encodes
// conversations into a JSON string, mirroring ai_chat_stream's
// {"callbackId", "conversations": json.dumps([...])}.
func (a *API) LLMStream(ctx context.Context, model woxplugin.AIModel, conversations []woxplugin.Conversation, callback woxplugin.ChatStreamFunc) error {
	id := newCallbackId()
	a.mu.Lock()
	a.llmStream[id] = callback
	a.mu.Unlock()

	encoded, err := json.Marshal(conversations)
	if err != nil {
		return err
	}
	params := map[string]interface{}{
		"callbackId":    id,
		"model":         model,
		"conversations": string(encoded),
	}
	return a.call(ctx, "LLMStream", params, nil)
}

func (a *API) OnMRURestore(ctx context.Context, callback woxplugin.MRURestoreFunc) error {
	id := newCallbackId()
	a.mu.Lock()
	a.mruRestore[id] = callback
	a.mu.Unlock()
	return a.call(ctx, "OnMRURestore", map[string]string{"callbackId": id}, nil)
}

func (a *API) GetUpdatableResult(ctx context.Context, resultId string) (*woxplugin.Result, error) {
	var result woxplugin.Result
	if err := a.call(ctx, "GetUpdatableResult", map[string]string{"resultId": resultId}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateResult re-interns every action the updated result carries before
// sending, per spec.md §4.8's "Callback caching on update": a subsequent
// `action` frame targeting a new action id must be able to find it.
func (a *API) UpdateResult(ctx context.Context, result woxplugin.UpdatableResult) error {
	if result.Actions != nil {
		a.reinternActions(*result.Actions)
	}
	return a.call(ctx, "UpdateResult", result, nil)
}

func (a *API) UpdateResultAction(ctx context.Context, action woxplugin.UpdatableResultAction) error {
	if action.Action != nil {
		if action.ActionId == "" {
			action.ActionId = newCallbackId()
		}
		a.reinternOne(action.ActionId, action.Action)
	}
	return a.call(ctx, "UpdateResultAction", action, nil)
}

func (a *API) RefreshQuery(ctx context.Context) error {
	return a.call(ctx, "RefreshQuery", struct{}{}, nil)
}

func (a *API) Copy(ctx context.Context, text string) error {
	return a.call(ctx, "Copy", map[string]string{"text": text}, nil)
}

// reinterner lets internal/rpcmethods hand this proxy's owning
// registry.Instance to UpdateResult/UpdateResultAction without pluginapi
// importing the registry package — the instance is set once at init via
// BindInstance.
type reinterner interface {
	InternAction(id string, fn woxplugin.ActionFunc)
}

// BindInstance wires the registry's action cache into this proxy so
// UpdateResult/UpdateResultAction can intern new action callbacks (§4.8).
func (a *API) BindInstance(inst reinterner) {
	a.mu.Lock()
	a.boundInstance = inst
	a.mu.Unlock()
}

func (a *API) reinternActions(actions []woxplugin.ResultAction) {
	a.mu.Lock()
	inst := a.boundInstance
	a.mu.Unlock()
	if inst == nil {
		return
	}
	for i := range actions {
		if actions[i].Action == nil {
			continue
		}
		if actions[i].Id == "" {
			actions[i].Id = newCallbackId()
		}
		inst.InternAction(actions[i].Id, actions[i].Action)
	}
}

func (a *API) reinternOne(id string, fn woxplugin.ActionFunc) {
	a.mu.Lock()
	inst := a.boundInstance
	a.mu.Unlock()
	if inst == nil {
		return
	}
	inst.InternAction(id, fn)
}
