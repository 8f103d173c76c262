package usecase

import (
	"sync"

	"finchat/internal/domain"
)

// Accountant tracks token usage: the most recent completed exchange and
// a running session total. The session view prefers the server-reported
// session_* counters and falls back to local accumulation when the
// server omits them.
type Accountant struct {
	mu      sync.RWMutex
	last    domain.TokenUsage
	session domain.TokenUsage
}

// NewAccountant creates an empty accountant.
func NewAccountant() *Accountant {
	return &Accountant{}
}

// Apply records the usage of a completed exchange.
func (a *Accountant) Apply(u domain.TokenUsage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = u

	if u.SessionTotalTokens > 0 {
		a.session = domain.TokenUsage{
			PromptTokens:             u.SessionPromptTokens,
			CompletionTokens:         u.SessionCompletionTokens,
			TotalTokens:              u.SessionTotalTokens,
			CacheCreationInputTokens: u.SessionCacheCreationInputTokens,
			CacheReadInputTokens:     u.SessionCacheReadInputTokens,
			Model:                    u.Model,
		}
		return
	}

	a.session.PromptTokens += u.PromptTokens
	a.session.CompletionTokens += u.CompletionTokens
	a.session.TotalTokens += u.TotalTokens
	a.session.CacheCreationInputTokens += u.CacheCreationInputTokens
	a.session.CacheReadInputTokens += u.CacheReadInputTokens
	a.session.UncachedInputTokens += u.UncachedInputTokens
	a.session.Model = u.Model
}

// Last returns the usage of the most recent completed exchange.
func (a *Accountant) Last() domain.TokenUsage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Session returns the running session total.
func (a *Accountant) Session() domain.TokenUsage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Reset zeroes both views. Called when the log is cleared.
func (a *Accountant) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = domain.TokenUsage{}
	a.session = domain.TokenUsage{}
}
