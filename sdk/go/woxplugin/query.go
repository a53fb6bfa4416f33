package woxplugin

// QueryType distinguishes an interactive input query from a selection query
// (user has selected text or files and invoked Wox on the selection).
type QueryType string

const (
	QueryTypeInput     QueryType = "input"
	QueryTypeSelection QueryType = "selection"
)

// SelectionType distinguishes a text selection from a file-path selection.
type SelectionType string

const (
	SelectionTypeText SelectionType = "text"
	SelectionTypeFile SelectionType = "file"
)

// Selection carries the text or file paths the user had selected when
// invoking Wox, if any.
type Selection struct {
	Type      SelectionType `json:"Type"`
	Text      string        `json:"Text,omitempty"`
	FilePaths []string      `json:"FilePaths,omitempty"`
}

// QueryEnv carries ambient environment information captured at query time.
type QueryEnv struct {
	ActiveWindowTitle string `json:"ActiveWindowTitle"`
	ActiveWindowPid   int    `json:"ActiveWindowPid"`
	ActiveBrowserUrl  string `json:"ActiveBrowserUrl"`
}

// Query is the value a plugin's Query method receives.
type Query struct {
	Type           QueryType `json:"Type"`
	RawQuery       string    `json:"RawQuery"`
	TriggerKeyword string    `json:"TriggerKeyword"`
	Command        string    `json:"Command"`
	Search         string    `json:"Search"`
	Selection      Selection `json:"Selection"`
	Env            QueryEnv  `json:"Env"`
}

// IsGlobalQuery reports whether this is an input query with no trigger
// keyword — i.e. it matches against every plugin rather than one
// explicitly invoked by its keyword.
func (q Query) IsGlobalQuery() bool {
	return q.Type == QueryTypeInput && q.TriggerKeyword == ""
}

// ChangeQueryParam is the parameter to PublicAPI.ChangeQuery: replace the
// text currently shown in Wox's query box, optionally with a selection
// instead of plain text.
type ChangeQueryParam struct {
	QueryType      QueryType  `json:"QueryType"`
	QueryText      string     `json:"QueryText,omitempty"`
	QuerySelection *Selection `json:"QuerySelection,omitempty"`
}
