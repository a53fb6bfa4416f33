package woxplugin

import "context"

// ConversationRole distinguishes who sent a chat turn.
type ConversationRole string

const (
	ConversationRoleUser      ConversationRole = "user"
	ConversationRoleAssistant ConversationRole = "assistant"
	ConversationRoleSystem    ConversationRole = "system"
)

// Conversation is one turn in an LLM chat history.
type Conversation struct {
	Role      ConversationRole `json:"Role"`
	Text      string           `json:"Text"`
	Timestamp int64            `json:"Timestamp,omitempty"`
}

// AIModel names the backing model an LLMStream call should use.
type AIModel struct {
	Name     string `json:"Name"`
	Provider string `json:"Provider,omitempty"`
}

// ChatStreamDataType distinguishes the three shapes an LLM stream callback
// can be invoked with.
type ChatStreamDataType string

const (
	ChatStreamDataTypeStreaming ChatStreamDataType = "streaming"
	ChatStreamDataTypeFinished  ChatStreamDataType = "finished"
	ChatStreamDataTypeError     ChatStreamDataType = "error"
)

// ChatStreamFunc is invoked as an LLM response streams in. It is fire and
// forward: the host never awaits it and never retries a failed send.
type ChatStreamFunc func(ctx context.Context, dataType ChatStreamDataType, data string, reasoning string)
