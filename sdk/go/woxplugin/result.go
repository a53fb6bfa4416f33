package woxplugin

import "context"

// ResultTailType distinguishes a text tail from an image tail.
type ResultTailType string

const (
	ResultTailTypeText  ResultTailType = "text"
	ResultTailTypeImage ResultTailType = "image"
)

// ResultTail is a small trailing adornment on a result row (e.g. a hotkey
// hint or a small badge image).
type ResultTail struct {
	Type        ResultTailType `json:"Type"`
	Text        string         `json:"Text,omitempty"`
	Image       WoxImage       `json:"Image,omitempty"`
	Id          string         `json:"Id,omitempty"`
	ContextData string         `json:"ContextData,omitempty"`
}

// ActionContext is passed to an action callback when the user triggers it,
// and to a refresh callback's associated action when it is restored.
type ActionContext struct {
	ResultId       string `json:"ResultId"`
	ResultActionId string `json:"ResultActionId"`
	ContextData    string `json:"ContextData"`
}

// ActionFunc is a user-supplied callback invoked when the user triggers a
// ResultAction. It runs detached from the action response: the host
// replies to Wox before the callback completes.
type ActionFunc func(ctx context.Context, actionCtx ActionContext)

// ResultAction is one user-triggerable action attached to a Result.
type ResultAction struct {
	Id                     string     `json:"Id,omitempty"`
	Name                   string     `json:"Name"`
	Icon                   WoxImage   `json:"Icon,omitempty"`
	IsDefault              bool       `json:"IsDefault,omitempty"`
	PreventHideAfterAction bool       `json:"PreventHideAfterAction,omitempty"`
	Hotkey                 string     `json:"Hotkey,omitempty"`
	ContextData            string     `json:"ContextData,omitempty"`
	Action                 ActionFunc `json:"-"`
}

// RefreshFunc is invoked periodically by Wox, given the previously
// displayed refreshable result, to produce its next value.
type RefreshFunc func(ctx context.Context, current RefreshableResult) RefreshableResult

// Result is one row a plugin's Query method returns.
type Result struct {
	Id              string         `json:"Id,omitempty"`
	Title           string         `json:"Title"`
	SubTitle        string         `json:"SubTitle,omitempty"`
	Icon            WoxImage       `json:"Icon,omitempty"`
	Preview         WoxPreview     `json:"Preview,omitempty"`
	Score           float64        `json:"Score,omitempty"`
	Group           string         `json:"Group,omitempty"`
	GroupScore      float64        `json:"GroupScore,omitempty"`
	Tails           []ResultTail   `json:"Tails,omitempty"`
	ContextData     string         `json:"ContextData,omitempty"`
	Actions         []ResultAction `json:"Actions,omitempty"`
	RefreshInterval int            `json:"RefreshInterval,omitempty"`
	OnRefresh       RefreshFunc    `json:"-"`
}

// RefreshableResult is the subset of Result a refresh callback receives
// and returns — the same shape minus Id, Score, Group, GroupScore and the
// OnRefresh callback.
type RefreshableResult struct {
	Title           string         `json:"Title"`
	SubTitle        string         `json:"SubTitle,omitempty"`
	Icon            WoxImage       `json:"Icon,omitempty"`
	Preview         WoxPreview     `json:"Preview,omitempty"`
	Tails           []ResultTail   `json:"Tails,omitempty"`
	ContextData     string         `json:"ContextData,omitempty"`
	Actions         []ResultAction `json:"Actions,omitempty"`
	RefreshInterval int            `json:"RefreshInterval,omitempty"`
}

// UpdatableResult carries a partial update to a previously returned result.
// All fields but Id are pointers; only non-nil fields are applied.
type UpdatableResult struct {
	Id       string          `json:"Id"`
	Title    *string         `json:"Title,omitempty"`
	SubTitle *string         `json:"SubTitle,omitempty"`
	Tails    *[]ResultTail   `json:"Tails,omitempty"`
	Preview  *WoxPreview     `json:"Preview,omitempty"`
	Actions  *[]ResultAction `json:"Actions,omitempty"`
}

// UpdatableResultAction carries a partial update to a single action of a
// previously returned result, without replacing the whole Actions slice.
type UpdatableResultAction struct {
	ResultId string      `json:"ResultId"`
	ActionId string      `json:"ActionId"`
	Name     *string     `json:"Name,omitempty"`
	Icon     *WoxImage   `json:"Icon,omitempty"`
	Action   ActionFunc  `json:"-"`
}
