package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobsheet/internal/types"
)

// Session is a stored session summary
type Session struct {
	ID        uuid.UUID            `json:"id"`
	Days      int                  `json:"days"`
	StartedAt time.Time            `json:"started_at"`
	Elapsed   time.Duration        `json:"elapsed"`
	Counts    map[types.Status]int `json:"counts"`
	Messages  int                  `json:"messages"`
	Inserted  int                  `json:"inserted"`
	Updated   int                  `json:"updated"`
	Stale     int                  `json:"stale"`
	Skipped   int                  `json:"skipped"`
	Failed    int                  `json:"failed"`
	CreatedAt time.Time            `json:"created_at"`
}

// Summary converts the stored row back into a SessionSummary.
func (s *Session) Summary() *types.SessionSummary {
	return &types.SessionSummary{
		ID:        s.ID,
		Days:      s.Days,
		StartedAt: s.StartedAt,
		Elapsed:   s.Elapsed,
		Counts:    s.Counts,
		Messages:  s.Messages,
		Inserted:  s.Inserted,
		Updated:   s.Updated,
		Stale:     s.Stale,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
	}
}
