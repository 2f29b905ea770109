package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/jobsheet/internal/types"
)

// RecordSession stores a finished session and its per-fact outcomes in one transaction.
func (db *DB) RecordSession(ctx context.Context, summary *types.SessionSummary, facts []types.FactRecord) error {
	counts, err := encodeCounts(summary.Counts)
	if err != nil {
		return err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (id, days, started_at, elapsed_ms, counts, messages, inserted, updated, stale, skipped, failed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		summary.ID, summary.Days, summary.StartedAt, summary.Elapsed.Milliseconds(), counts,
		summary.Messages, summary.Inserted, summary.Updated, summary.Stale, summary.Skipped, summary.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if len(facts) > 0 {
		rows := make([][]any, len(facts))
		for i, f := range facts {
			rows[i] = []any{summary.ID, f.MessageID, f.Company, f.Role, string(f.Status), string(f.Outcome), f.Range}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"session_facts"},
			[]string{"session_id", "message_id", "company", "role", "status", "outcome", "cell_range"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to insert session facts: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID; a missing session yields nil, nil.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, days, started_at, elapsed_ms, counts, messages, inserted, updated, stale, skipped, failed, created_at
		 FROM sessions WHERE id = $1`,
		id,
	)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListSessions retrieves the most recent sessions, newest first.
func (db *DB) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, days, started_at, elapsed_ms, counts, messages, inserted, updated, stale, skipped, failed, created_at
		 FROM sessions ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// ListSessionFacts retrieves the per-fact outcomes of a session.
func (db *DB) ListSessionFacts(ctx context.Context, sessionID uuid.UUID) ([]types.FactRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT message_id, company, role, status, outcome, cell_range
		 FROM session_facts WHERE session_id = $1 ORDER BY message_id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list session facts: %w", err)
	}
	defer rows.Close()

	var facts []types.FactRecord
	for rows.Next() {
		var f types.FactRecord
		var status, outcome string
		if err := rows.Scan(&f.MessageID, &f.Company, &f.Role, &status, &outcome, &f.Range); err != nil {
			return nil, fmt.Errorf("failed to scan session fact: %w", err)
		}
		f.Status = types.Status(status)
		f.Outcome = types.Outcome(outcome)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	var elapsedMS int64
	var counts []byte
	err := row.Scan(&s.ID, &s.Days, &s.StartedAt, &elapsedMS, &counts,
		&s.Messages, &s.Inserted, &s.Updated, &s.Stale, &s.Skipped, &s.Failed, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	if s.Counts, err = decodeCounts(counts); err != nil {
		return nil, err
	}
	return &s, nil
}

// encodeCounts renders per-status counters as a JSON object keyed by status name.
func encodeCounts(counts map[types.Status]int) ([]byte, error) {
	out := make(map[string]int, len(counts))
	for s, n := range counts {
		out[string(s)] = n
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal counts: %w", err)
	}
	return data, nil
}

func decodeCounts(data []byte) (map[types.Status]int, error) {
	var raw map[string]int
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse counts: %w", err)
		}
	}
	counts := make(map[types.Status]int, len(types.AllStatuses))
	for _, s := range types.AllStatuses {
		counts[s] = raw[string(s)]
	}
	return counts, nil
}
