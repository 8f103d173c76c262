package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finchat/internal/domain"
)

// conformance runs the LogStore contract against any implementation.
func conformance(t *testing.T, s domain.LogStore) {
	t.Helper()
	ctx := context.Background()

	// Absent user: no record, no error.
	entries, err := s.Load(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, entries)

	now := time.Now().UTC().Truncate(time.Millisecond)
	saved := []domain.Entry{
		{ID: "m001", Role: domain.RoleUser, Content: "hello", CreatedAt: now},
		{ID: "m002", Role: domain.RoleAssistant, Content: "hi", CreatedAt: now.Add(time.Second)},
		{ID: "m003", Role: domain.RoleSystem, Content: "Running run_code", Status: domain.StatusToolStart, Code: "print(1)", CreatedAt: now.Add(2 * time.Second)},
		{ID: "m004", Role: domain.RoleThinking, Content: "hmm", IsThinking: true, ThinkingDone: true, CreatedAt: now.Add(3 * time.Second)},
	}
	require.NoError(t, s.Save(ctx, "u1", saved))

	loaded, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, loaded, len(saved))
	for i := range saved {
		assert.Equal(t, saved[i].ID, loaded[i].ID)
		assert.Equal(t, saved[i].Role, loaded[i].Role)
		assert.Equal(t, saved[i].Content, loaded[i].Content)
		assert.Equal(t, saved[i].Status, loaded[i].Status)
		assert.Equal(t, saved[i].Code, loaded[i].Code)
		assert.Equal(t, saved[i].ThinkingDone, loaded[i].ThinkingDone)
		assert.True(t, saved[i].CreatedAt.Equal(loaded[i].CreatedAt),
			"timestamps survive serialization: %v vs %v", saved[i].CreatedAt, loaded[i].CreatedAt)
	}

	// Save replaces the whole record.
	require.NoError(t, s.Save(ctx, "u1", saved[:1]))
	loaded, err = s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	// Records are keyed per user.
	require.NoError(t, s.Save(ctx, "u2", saved[:2]))
	loaded, err = s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	// Delete erases the record.
	require.NoError(t, s.Delete(ctx, "u1"))
	loaded, err = s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting an absent record is not an error.
	require.NoError(t, s.Delete(ctx, "nobody"))
}

func TestMemoryStore(t *testing.T) {
	conformance(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	defer s.Close()
	conformance(t, s)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	entries := make([]domain.Entry, 200)
	for i := range entries {
		entries[i] = domain.Entry{
			ID:        fmt.Sprintf("m%03d", i),
			Role:      domain.RoleUser,
			Content:   fmt.Sprintf("msg %d", i),
			CreatedAt: time.Now().UTC(),
		}
	}
	require.NoError(t, s.Save(ctx, "u1", entries))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, loaded, 200)
	assert.Equal(t, "msg 0", loaded[0].Content)
	assert.Equal(t, "msg 199", loaded[199].Content)
}

func TestMemoryStoreLoadIsACopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "u1", []domain.Entry{{ID: "m001", Content: "original"}}))

	loaded, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	loaded[0].Content = "mutated"

	again, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}
