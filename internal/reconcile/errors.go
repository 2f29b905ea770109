// Package reconcile merges classified facts into the tracking sheet: one row per
// (company, role), newest message wins, safe under concurrent workers.
package reconcile

import (
	"fmt"
	"time"
)

// LockTimeoutError is returned when a range stays locked by another worker for longer
// than the configured wait.
type LockTimeoutError struct {
	Range string
	Wait  time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("lock timeout: range %s still held after %s", e.Range, e.Wait)
}

// LookupError represents a failure resolving a (company, role) pair to a row
type LookupError struct {
	Company string
	Role    string
	Message string
	Cause   error
}

func (e *LookupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("lookup %s/%s: %s: %v", e.Company, e.Role, e.Message, e.Cause)
	}
	return fmt.Sprintf("lookup %s/%s: %s", e.Company, e.Role, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Cause
}
