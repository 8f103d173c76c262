package domain

// AgentEvent is one typed inbound event from the remote agent. The
// concrete types below form a closed set: the frame decoder produces
// exactly one of them per recognized frame, so a type switch over
// AgentEvent covers the whole protocol.
type AgentEvent interface {
	agentEvent()
}

// ThinkingDelta is an incremental fragment of a reasoning block.
type ThinkingDelta struct {
	Content string
}

// TextDelta is an incremental fragment of streamed output. Source
// distinguishes assistant output from data-processor output.
type TextDelta struct {
	Content string
	Source  string
}

// TextMessage is a complete, non-streamed message.
type TextMessage struct {
	Content string
	Source  string
}

// ToolStart announces a tool invocation, optionally with the code it runs.
type ToolStart struct {
	Tool string
	Code string
}

// ToolResult carries the output of a finished tool invocation.
type ToolResult struct {
	Output string
}

// Handoff announces which sub-agent is responsible for the next output.
type Handoff struct {
	To string
}

// NotificationKind identifies an ambient domain notification. These are
// not log mutations; they are re-emitted on the event bus for unrelated
// UI surfaces to observe.
type NotificationKind string

const (
	NotifyModelUpdated          NotificationKind = "model_updated"
	NotifyInsightPublished      NotificationKind = "insight_published"
	NotifyForecastAlgoPublished NotificationKind = "forecast_algo_published"
)

// Notification is an ambient domain signal from the agent.
type Notification struct {
	Kind NotificationKind
}

// MessageComplete marks the end of an exchange. Usage is nil when the
// server did not attach accounting data.
type MessageComplete struct {
	Usage *TokenUsage
}

// Cancelled reports that the current run was cancelled server-side.
type Cancelled struct{}

// ErrorEvent is a content-level error from the agent. It does not imply
// the connection itself failed.
type ErrorEvent struct {
	Message string
}

// StatusEvent is a transient progress note, e.g. during upstream
// rate-limit retries.
type StatusEvent struct {
	Message string
}

func (ThinkingDelta) agentEvent()   {}
func (TextDelta) agentEvent()       {}
func (TextMessage) agentEvent()     {}
func (ToolStart) agentEvent()       {}
func (ToolResult) agentEvent()      {}
func (Handoff) agentEvent()         {}
func (Notification) agentEvent()    {}
func (MessageComplete) agentEvent() {}
func (Cancelled) agentEvent()       {}
func (ErrorEvent) agentEvent()      {}
func (StatusEvent) agentEvent()     {}
