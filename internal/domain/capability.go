package domain

import "context"

// LogStore is the bounded, user-keyed persistence slot for conversation
// logs. Implementations hold at most one record per user identity.
type LogStore interface {
	// Load returns the persisted entries for a user, or (nil, nil) when
	// no record exists.
	Load(ctx context.Context, userID string) ([]Entry, error)
	// Save replaces the persisted record for a user.
	Save(ctx context.Context, userID string, entries []Entry) error
	// Delete erases the persisted record for a user.
	Delete(ctx context.Context, userID string) error
}

// IDGenerator produces locally unique, monotonically increasing entry
// IDs. Injected so tests can substitute a deterministic sequence.
type IDGenerator interface {
	NextID() string
}
