package types

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal decision the reconciliation engine reached for a fact.
type Outcome string

// Outcome constants
const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeStale    Outcome = "stale"
)

// SessionSummary aggregates one scan of the inbox.
type SessionSummary struct {
	ID        uuid.UUID      `json:"id"`
	Days      int            `json:"days"`
	StartedAt time.Time      `json:"started_at"`
	Elapsed   time.Duration  `json:"elapsed"`
	Counts    map[Status]int `json:"counts"`

	Messages int `json:"messages"` // message refs listed
	Inserted int `json:"inserted"` // rows appended
	Updated  int `json:"updated"`  // rows overwritten
	Stale    int `json:"stale"`    // facts older than the stored row
	Skipped  int `json:"skipped"`  // not application related
	Failed   int `json:"failed"`   // decode, classification, store or lock failures
}

// Total is the sum of the per-status counters. Stale facts are included, so it can exceed
// the number of rows actually written in the session.
func (s *SessionSummary) Total() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

// FactRecord is the per-fact outcome kept in session history.
type FactRecord struct {
	MessageID string  `json:"message_id"`
	Company   string  `json:"company"`
	Role      string  `json:"role"`
	Status    Status  `json:"status"`
	Outcome   Outcome `json:"outcome"`
	Range     string  `json:"range"`
}
