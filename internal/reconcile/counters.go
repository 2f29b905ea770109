package reconcile

import (
	"sync"

	"github.com/jonathan/jobsheet/internal/types"
)

type statusCounter struct {
	mu sync.Mutex
	n  int
}

// Counters holds one counter per status, each behind its own mutex so increments for
// different statuses never contend.
type Counters struct {
	byStatus map[types.Status]*statusCounter
}

// NewCounters returns all five counters at zero.
func NewCounters() *Counters {
	c := &Counters{byStatus: make(map[types.Status]*statusCounter, len(types.AllStatuses))}
	for _, s := range types.AllStatuses {
		c.byStatus[s] = &statusCounter{}
	}
	return c
}

// Inc adds one to the counter for s. Unknown statuses are ignored.
func (c *Counters) Inc(s types.Status) {
	sc, ok := c.byStatus[s]
	if !ok {
		return
	}
	sc.mu.Lock()
	sc.n++
	sc.mu.Unlock()
}

// Snapshot copies the current counts.
func (c *Counters) Snapshot() map[types.Status]int {
	out := make(map[types.Status]int, len(c.byStatus))
	for s, sc := range c.byStatus {
		sc.mu.Lock()
		out[s] = sc.n
		sc.mu.Unlock()
	}
	return out
}
