package woxplugin

import "context"

// SettingChangedFunc is invoked when the user edits one of the plugin's
// settings through Wox's settings UI.
type SettingChangedFunc func(ctx context.Context, key, value string)

// DynamicSettingFunc computes a setting definition on demand, for settings
// whose shape depends on other state (e.g. a dropdown populated at
// runtime).
type DynamicSettingFunc func(ctx context.Context, key string) PluginSettingDefinitionItem

// DeepLinkFunc is invoked when Wox routes a `wox://` deep link addressed
// to this plugin.
type DeepLinkFunc func(ctx context.Context, params map[string]string)

// UnloadFunc is the callback a plugin registers through OnUnload, which
// sends Wox its callbackId, matching the original SDK's on_unload. This is
// distinct from the optional Unloader hook the registry itself calls
// (internal/registry). The host stores the callback but has no inbound
// method that invokes it, and unloadPlugin does not call it.
type UnloadFunc func(ctx context.Context)

// MRURestoreFunc reconstructs a Result from previously persisted MRU data.
type MRURestoreFunc func(ctx context.Context, data MRUData) (*Result, error)

// PublicAPI is the façade a plugin uses to call back into Wox. Each method
// is a single outbound JSON-RPC request (see internal/pluginapi on the
// host side); the ones ending in "...Changed"/"On..." instead register a
// callback that Wox will invoke later via a corresponding inbound request.
type PublicAPI interface {
	ChangeQuery(ctx context.Context, query ChangeQueryParam) error
	HideApp(ctx context.Context) error
	ShowApp(ctx context.Context) error
	IsVisible(ctx context.Context) (bool, error)
	Notify(ctx context.Context, message string) error
	Log(ctx context.Context, level string, msg string) error
	GetTranslation(ctx context.Context, key string) (string, error)
	GetSetting(ctx context.Context, key string) (string, error)
	SaveSetting(ctx context.Context, key, value string, isPlatformSpecific bool) error
	OnSettingChanged(ctx context.Context, callback SettingChangedFunc) error
	OnGetDynamicSetting(ctx context.Context, callback DynamicSettingFunc) error
	OnDeepLink(ctx context.Context, callback DeepLinkFunc) error
	OnUnload(ctx context.Context, callback UnloadFunc) error
	RegisterQueryCommands(ctx context.Context, commands []MetadataCommand) error
	LLMStream(ctx context.Context, model AIModel, conversations []Conversation, callback ChatStreamFunc) error
	OnMRURestore(ctx context.Context, callback MRURestoreFunc) error
	GetUpdatableResult(ctx context.Context, resultId string) (*Result, error)
	UpdateResult(ctx context.Context, result UpdatableResult) error
	UpdateResultAction(ctx context.Context, action UpdatableResultAction) error
	RefreshQuery(ctx context.Context) error
	Copy(ctx context.Context, text string) error
}
