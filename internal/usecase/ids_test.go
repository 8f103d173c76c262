package usecase

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestULIDGeneratorMonotonic(t *testing.T) {
	g := NewULIDGenerator()

	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = g.NextID()
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, len(ids), "ids must be unique")
	assert.True(t, sort.StringsAreSorted(ids), "ids must sort in assignment order")
}
