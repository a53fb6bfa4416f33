package woxplugin

// MRUData is the record Wox replays to a plugin's MRU-restore callback
// when the user revisits a most-recently-used result.
type MRUData struct {
	PluginId    string `json:"PluginId"`
	Title       string `json:"Title"`
	SubTitle    string `json:"SubTitle,omitempty"`
	Icon        WoxImage `json:"Icon,omitempty"`
	ContextData string `json:"ContextData,omitempty"`
}
