package domain

import "time"

// Role constants for log entries.
const (
	RoleUser          = "user"
	RoleAssistant     = "assistant"
	RoleDataProcessor = "data_processor"
	RoleSystem        = "system"
	RoleThinking      = "thinking"
)

// Status tags on system entries.
const (
	StatusToolStart  = "tool_start"
	StatusToolResult = "tool_result"
	StatusHandoff    = "handoff"
	StatusError      = "error"
)

// Entry is a single message in the conversation log. Streaming entries
// grow via content appends until finalized; finalized entries are never
// mutated again.
type Entry struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status,omitempty"`
	IsThinking   bool      `json:"is_thinking,omitempty"`
	ThinkingDone bool      `json:"thinking_done,omitempty"`
	Code         string    `json:"code,omitempty"`
}

// ConnStatus is the coarse activity indicator layered on top of the raw
// socket state. The socket itself is binary (open or not); this enum also
// reflects what the remote agent is currently doing.
type ConnStatus string

const (
	ConnDisconnected ConnStatus = "disconnected"
	ConnConnecting   ConnStatus = "connecting"
	ConnConnected    ConnStatus = "connected"
	ConnThinking     ConnStatus = "thinking"
	ConnRunningCode  ConnStatus = "running_code"
	ConnHandingOff   ConnStatus = "handing_off"
	ConnError        ConnStatus = "error"
)
