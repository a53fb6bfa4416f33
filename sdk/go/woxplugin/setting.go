package woxplugin

// PluginSettingDefinitionType enumerates the kinds of setting a plugin can
// declare for its settings page.
type PluginSettingDefinitionType string

const (
	PluginSettingDefinitionTypeHead     PluginSettingDefinitionType = "head"
	PluginSettingDefinitionTypeTextBox  PluginSettingDefinitionType = "textbox"
	PluginSettingDefinitionTypeCheckBox PluginSettingDefinitionType = "checkbox"
	PluginSettingDefinitionTypeSelect   PluginSettingDefinitionType = "select"
	PluginSettingDefinitionTypeLabel    PluginSettingDefinitionType = "label"
	PluginSettingDefinitionTypeNewLine  PluginSettingDefinitionType = "newline"
	PluginSettingDefinitionTypeTable    PluginSettingDefinitionType = "table"
	PluginSettingDefinitionTypeDynamic  PluginSettingDefinitionType = "dynamic"
)

// PluginSettingValueStyle controls layout of a single setting row.
type PluginSettingValueStyle struct {
	PaddingLeft   int `json:"PaddingLeft,omitempty"`
	PaddingTop    int `json:"PaddingTop,omitempty"`
	PaddingRight  int `json:"PaddingRight,omitempty"`
	PaddingBottom int `json:"PaddingBottom,omitempty"`
	Width         int `json:"Width,omitempty"`
	LabelWidth    int `json:"LabelWidth,omitempty"`
}

// PluginSettingValueTextBox is a free-text setting.
type PluginSettingValueTextBox struct {
	Key          string                  `json:"Key"`
	Label        string                  `json:"Label,omitempty"`
	Suffix       string                  `json:"Suffix,omitempty"`
	DefaultValue string                  `json:"DefaultValue,omitempty"`
	Tooltip      string                  `json:"Tooltip,omitempty"`
	MaxLines     int                     `json:"MaxLines,omitempty"`
	Style        PluginSettingValueStyle `json:"Style,omitempty"`
}

// PluginSettingValueCheckBox is a boolean-ish setting ("true"/"false" as a string value).
type PluginSettingValueCheckBox struct {
	Key          string                  `json:"Key"`
	Label        string                  `json:"Label,omitempty"`
	DefaultValue string                  `json:"DefaultValue,omitempty"`
	Tooltip      string                  `json:"Tooltip,omitempty"`
	Style        PluginSettingValueStyle `json:"Style,omitempty"`
}

// PluginSettingValueLabel is a non-interactive label row.
type PluginSettingValueLabel struct {
	Content string                  `json:"Content"`
	Tooltip string                  `json:"Tooltip,omitempty"`
	Style   PluginSettingValueStyle `json:"Style,omitempty"`
}

// PluginSettingDefinitionItem is one row of a plugin's settings page. Value
// holds one of the PluginSettingValue* structs above, matching Type.
type PluginSettingDefinitionItem struct {
	Type                PluginSettingDefinitionType `json:"Type"`
	Value               interface{}                 `json:"Value"`
	DisabledInPlatforms []string                    `json:"DisabledInPlatforms,omitempty"`
	IsPlatformSpecific  bool                        `json:"IsPlatformSpecific,omitempty"`
}

// NewTextBoxSetting builds a textbox setting definition.
func NewTextBoxSetting(key, label, defaultValue, tooltip string) PluginSettingDefinitionItem {
	return PluginSettingDefinitionItem{
		Type: PluginSettingDefinitionTypeTextBox,
		Value: PluginSettingValueTextBox{
			Key:          key,
			Label:        label,
			DefaultValue: defaultValue,
			Tooltip:      tooltip,
		},
	}
}

// NewCheckBoxSetting builds a checkbox setting definition.
func NewCheckBoxSetting(key, label, defaultValue, tooltip string) PluginSettingDefinitionItem {
	return PluginSettingDefinitionItem{
		Type: PluginSettingDefinitionTypeCheckBox,
		Value: PluginSettingValueCheckBox{
			Key:          key,
			Label:        label,
			DefaultValue: defaultValue,
			Tooltip:      tooltip,
		},
	}
}

// NewLabelSetting builds a non-interactive label row.
func NewLabelSetting(content, tooltip string) PluginSettingDefinitionItem {
	return PluginSettingDefinitionItem{
		Type:  PluginSettingDefinitionTypeLabel,
		Value: PluginSettingValueLabel{Content: content, Tooltip: tooltip},
	}
}

// MetadataCommand declares one query subcommand the plugin registers via
// PublicAPI.RegisterQueryCommands.
type MetadataCommand struct {
	Command     string `json:"Command"`
	Description string `json:"Description,omitempty"`
}
