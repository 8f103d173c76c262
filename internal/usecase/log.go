package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"finchat/internal/domain"
)

// maxPersisted bounds how many entries survive each save. Older entries
// are dropped from the persisted record only, not from memory.
const maxPersisted = 200

// MessageLog holds the canonical ordered conversation log for one user.
// All mutation goes through its methods; callers never get a settable
// reference to the underlying slice. Every mutation triggers a
// best-effort persistence write.
type MessageLog struct {
	mu       sync.RWMutex
	entries  []domain.Entry
	store    domain.LogStore
	userID   string
	ids      domain.IDGenerator
	logger   *slog.Logger
	onChange func()
}

// NewMessageLog creates a log bound to one user identity and rehydrates
// any previously persisted entries. A load or parse failure starts the
// log empty; persistence is best effort, never fatal.
func NewMessageLog(store domain.LogStore, userID string, ids domain.IDGenerator, logger *slog.Logger) *MessageLog {
	l := &MessageLog{
		store:  store,
		userID: userID,
		ids:    ids,
		logger: logger,
	}
	if store != nil && userID != "" {
		entries, err := store.Load(context.Background(), userID)
		if err != nil {
			logger.Debug("message log rehydrate failed", "user_id", userID, "error", err)
		} else {
			l.entries = entries
		}
	}
	return l
}

// OnChange registers a callback invoked after every mutation. Used by
// the UI harness to observe the log reactively.
func (l *MessageLog) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Append adds a finalized entry with the given role and content.
func (l *MessageLog) Append(role, content string) domain.Entry {
	e := domain.Entry{
		ID:        l.ids.NextID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	l.changed()
	return e
}

// AppendSystem adds a system entry. Status tags the entry kind
// (tool_start, tool_result, handoff, error); empty means a plain note.
// Code carries an attached source snippet when present.
func (l *MessageLog) AppendSystem(status, content, code string) domain.Entry {
	e := domain.Entry{
		ID:        l.ids.NextID(),
		Role:      domain.RoleSystem,
		Content:   content,
		CreatedAt: time.Now(),
		Status:    status,
		Code:      code,
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	l.changed()
	return e
}

// AppendThinking opens a new reasoning entry seeded with content.
func (l *MessageLog) AppendThinking(content string) domain.Entry {
	e := domain.Entry{
		ID:         l.ids.NextID(),
		Role:       domain.RoleThinking,
		Content:    content,
		CreatedAt:  time.Now(),
		IsThinking: true,
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	l.changed()
	return e
}

// AppendText appends delta to the content of the entry with the given
// ID. Unknown IDs are ignored.
func (l *MessageLog) AppendText(id, delta string) {
	l.mu.Lock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Content += delta
			break
		}
	}
	l.mu.Unlock()
	l.changed()
}

// FinishThinking marks the reasoning entry with the given ID as closed.
func (l *MessageLog) FinishThinking(id string) {
	l.mu.Lock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].ThinkingDone = true
			break
		}
	}
	l.mu.Unlock()
	l.changed()
}

// Entries returns a copy of the current log.
func (l *MessageLog) Entries() []domain.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]domain.Entry, len(l.entries))
	copy(cp, l.entries)
	return cp
}

// Len returns the number of entries.
func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear empties the in-memory log and erases the persisted record.
func (l *MessageLog) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
	if l.store != nil && l.userID != "" {
		if err := l.store.Delete(context.Background(), l.userID); err != nil {
			l.logger.Debug("message log clear failed", "user_id", l.userID, "error", err)
		}
	}
	l.notify()
}

// changed persists the capped tail of the log and notifies the observer.
func (l *MessageLog) changed() {
	l.persist()
	l.notify()
}

func (l *MessageLog) persist() {
	if l.store == nil || l.userID == "" {
		return
	}
	l.mu.RLock()
	entries := l.entries
	if len(entries) > maxPersisted {
		entries = entries[len(entries)-maxPersisted:]
	}
	cp := make([]domain.Entry, len(entries))
	copy(cp, entries)
	l.mu.RUnlock()

	if err := l.store.Save(context.Background(), l.userID, cp); err != nil {
		l.logger.Debug("message log persist failed", "user_id", l.userID, "error", err)
	}
}

func (l *MessageLog) notify() {
	l.mu.RLock()
	fn := l.onChange
	l.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
