package usecase

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"finchat/internal/domain"
)

// ULIDGenerator implements domain.IDGenerator with monotonic ULIDs, so
// IDs sort in assignment order even within one millisecond.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator creates a generator seeded from the current time.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// NextID returns the next entry ID.
func (g *ULIDGenerator) NextID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

var _ domain.IDGenerator = (*ULIDGenerator)(nil)
