package reconcile

import (
	"context"
	"sync"
	"time"
)

// RangeLocks is the table of ranges currently being read-modify-written. A waiter
// blocks on the holder's channel, which is closed on release, rather than polling.
type RangeLocks struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewRangeLocks returns an empty lock table.
func NewRangeLocks() *RangeLocks {
	return &RangeLocks{held: make(map[string]chan struct{})}
}

// Acquire takes exclusive ownership of key, waiting at most timeout (zero or negative
// waits until ctx is done). The returned release func is idempotent.
func (l *RangeLocks) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		l.mu.Lock()
		waitOn, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() { l.release(key, done) })
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-waitOn:
		case <-deadline:
			return nil, &LockTimeoutError{Range: key, Wait: timeout}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *RangeLocks) release(key string, done chan struct{}) {
	l.mu.Lock()
	if l.held[key] == done {
		delete(l.held, key)
	}
	l.mu.Unlock()
	close(done)
}

// Held reports whether key is currently locked.
func (l *RangeLocks) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}
