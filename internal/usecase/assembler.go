package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"finchat/internal/domain"
)

// The agent's internal control-return convention: a handoff to "user"
// and the transfer_to_user tool denote control coming back to the
// caller, not a visible transfer, and are suppressed from the log.
// The tool_result marker is matched on string content for backward
// compatibility with the deployed agent protocol.
const (
	handoffUser         = "user"
	handoffTool         = "transfer_to_user"
	handoffResultMarker = "handed off to user"
)

// openStream identifies the not-yet-finalized streaming entry.
type openStream struct {
	id     string
	source string
}

// AssemblerDeps bundles the collaborators of an Assembler.
type AssemblerDeps struct {
	Log    *MessageLog
	Usage  *Accountant
	Status *StatusTracker
	Bus    domain.EventBus
	Logger *slog.Logger
}

// Assembler folds the ordered inbound event sequence into message log
// mutations. It tracks at most one open thinking entry and one open
// streaming entry; a new open entry of a differing kind finalizes the
// previous one first. Events for one connection arrive over a single
// ordered transport and are handled synchronously, so the log always
// reflects receipt order.
type Assembler struct {
	deps AssemblerDeps

	mu           sync.Mutex
	openThinking string // entry ID, "" = none
	stream       *openStream
}

// NewAssembler creates an assembler.
func NewAssembler(deps AssemblerDeps) *Assembler {
	return &Assembler{deps: deps}
}

// Handle applies one inbound event to the log.
func (a *Assembler) Handle(ev domain.AgentEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch e := ev.(type) {
	case domain.ThinkingDelta:
		a.handleThinkingDelta(e)
	case domain.TextDelta:
		a.handleTextDelta(e)
	case domain.TextMessage:
		a.handleText(e)
	case domain.ToolStart:
		a.handleToolStart(e)
	case domain.ToolResult:
		a.handleToolResult(e)
	case domain.Handoff:
		a.handleHandoff(e)
	case domain.Notification:
		a.handleNotification(e)
	case domain.MessageComplete:
		a.handleComplete(e)
	case domain.Cancelled:
		a.flush()
		a.deps.Log.AppendSystem("", "Cancelled", "")
		a.deps.Status.Set(domain.ConnConnected)
	case domain.ErrorEvent:
		a.flush()
		a.deps.Log.AppendSystem(domain.StatusError, e.Message, "")
		a.deps.Status.Set(domain.ConnConnected)
	case domain.StatusEvent:
		// Transient progress note; open-entry state stays untouched.
		a.deps.Log.AppendSystem("", e.Message, "")
	}
}

// Reset drops the open-entry bookkeeping without touching the log.
// Called when the log is cleared.
func (a *Assembler) Reset() {
	a.mu.Lock()
	a.openThinking = ""
	a.stream = nil
	a.mu.Unlock()
}

func (a *Assembler) handleThinkingDelta(e domain.ThinkingDelta) {
	if a.openThinking == "" {
		entry := a.deps.Log.AppendThinking(e.Content)
		a.openThinking = entry.ID
	} else {
		a.deps.Log.AppendText(a.openThinking, e.Content)
	}
	a.deps.Status.Set(domain.ConnThinking)
}

func (a *Assembler) handleTextDelta(e domain.TextDelta) {
	a.finishThinking()
	if a.stream == nil || a.stream.source != e.Source {
		entry := a.deps.Log.Append(roleForSource(e.Source), e.Content)
		a.stream = &openStream{id: entry.ID, source: e.Source}
	} else {
		a.deps.Log.AppendText(a.stream.id, e.Content)
	}
	// Token arrival means the model is still producing output.
	a.deps.Status.Set(domain.ConnThinking)
}

func (a *Assembler) handleText(e domain.TextMessage) {
	a.stream = nil
	a.deps.Log.Append(roleForSource(e.Source), e.Content)
}

func (a *Assembler) handleToolStart(e domain.ToolStart) {
	a.finishThinking()
	a.deps.Status.Set(domain.ConnRunningCode)
	if e.Tool == handoffTool {
		a.deps.Logger.Debug("suppressed control tool", "tool", e.Tool)
		return
	}
	a.deps.Log.AppendSystem(domain.StatusToolStart, fmt.Sprintf("Running %s", e.Tool), e.Code)
}

func (a *Assembler) handleToolResult(e domain.ToolResult) {
	if strings.Contains(strings.ToLower(e.Output), handoffResultMarker) {
		a.deps.Logger.Debug("suppressed handoff confirmation")
	} else {
		a.deps.Log.AppendSystem(domain.StatusToolResult, e.Output, "")
	}
	a.deps.Status.Set(domain.ConnThinking)
}

func (a *Assembler) handleHandoff(e domain.Handoff) {
	a.deps.Status.Set(domain.ConnHandingOff)
	if e.To == handoffUser {
		a.deps.Logger.Debug("suppressed control handoff")
		return
	}
	a.deps.Log.AppendSystem(domain.StatusHandoff, fmt.Sprintf("Handing off to %s", e.To), "")
}

func (a *Assembler) handleNotification(e domain.Notification) {
	if a.deps.Bus == nil {
		return
	}
	a.deps.Bus.Publish(context.Background(), domain.Event{
		Type:      busEventFor(e.Kind),
		Timestamp: time.Now(),
	})
}

func (a *Assembler) handleComplete(e domain.MessageComplete) {
	a.flush()
	if e.Usage != nil && e.Usage.TotalTokens > 0 {
		a.deps.Logger.Debug("usage applied", "total_tokens", e.Usage.TotalTokens, "model", e.Usage.Model)
		a.deps.Usage.Apply(*e.Usage)
		if a.deps.Bus != nil {
			a.deps.Bus.Publish(context.Background(), domain.Event{
				Type:      domain.EventUsageUpdated,
				Timestamp: time.Now(),
			})
		}
	}
	a.deps.Status.Set(domain.ConnConnected)
}

// flush finalizes any open thinking and streaming entries.
func (a *Assembler) flush() {
	a.finishThinking()
	a.stream = nil
}

func (a *Assembler) finishThinking() {
	if a.openThinking == "" {
		return
	}
	a.deps.Log.FinishThinking(a.openThinking)
	a.openThinking = ""
}

func roleForSource(source string) string {
	if source == domain.RoleDataProcessor {
		return domain.RoleDataProcessor
	}
	return domain.RoleAssistant
}

func busEventFor(kind domain.NotificationKind) domain.EventType {
	switch kind {
	case domain.NotifyInsightPublished:
		return domain.EventInsightPublished
	case domain.NotifyForecastAlgoPublished:
		return domain.EventForecastAlgoPublished
	default:
		return domain.EventModelUpdated
	}
}
