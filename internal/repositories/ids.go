package repositories

import (
	"sync"
	"time"
)

// IDGenerator hands out millisecond timestamps as ids, bumped past the last
// issued id and past any id already stored, so ids stay unique and
// increasing even when several are needed within one millisecond or the
// clock steps back.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns an id greater than floor and every id returned before.
func (g *IDGenerator) Next(floor int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	if id <= floor {
		id = floor + 1
	}
	g.last = id
	return id
}
