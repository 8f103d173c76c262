package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"finchat/internal/domain"
)

// StatusTracker owns the current domain.ConnStatus. Both the connection
// manager (socket lifecycle) and the stream assembler (agent activity)
// write through it; the UI observes changes via the event bus.
type StatusTracker struct {
	mu      sync.RWMutex
	current domain.ConnStatus
	bus     domain.EventBus
	logger  *slog.Logger
}

// NewStatusTracker creates a tracker starting at disconnected. The bus
// is optional; nil disables change events.
func NewStatusTracker(bus domain.EventBus, logger *slog.Logger) *StatusTracker {
	return &StatusTracker{
		current: domain.ConnDisconnected,
		bus:     bus,
		logger:  logger,
	}
}

// Set updates the current status. Repeated sets of the same value are
// no-ops and publish nothing.
func (t *StatusTracker) Set(s domain.ConnStatus) {
	t.mu.Lock()
	if t.current == s {
		t.mu.Unlock()
		return
	}
	t.current = s
	t.mu.Unlock()

	t.logger.Debug("connection status", "status", string(s))
	if t.bus != nil {
		payload, _ := json.Marshal(map[string]string{"status": string(s)})
		t.bus.Publish(context.Background(), domain.Event{
			Type:      domain.EventConnStatus,
			Timestamp: time.Now(),
			Payload:   payload,
		})
	}
}

// Current returns the current status.
func (t *StatusTracker) Current() domain.ConnStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}
