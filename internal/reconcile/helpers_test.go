package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/jobsheet/internal/sheets"
	"github.com/jonathan/jobsheet/internal/similarity"
	"github.com/jonathan/jobsheet/internal/types"
	"github.com/stretchr/testify/require"
)

// recordingStore wraps a MemoryStore, optionally failing calls and tracking how many
// read-modify-write sequences are in flight per row.
type recordingStore struct {
	*sheets.MemoryStore

	mu        sync.Mutex
	readDelay time.Duration
	failRead  bool
	failWrite bool
	inFlight  map[string]int
	maxFlight int
	writes    map[string]int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		MemoryStore: sheets.NewMemoryStore(),
		inFlight:    make(map[string]int),
		writes:      make(map[string]int),
	}
}

var errUnavailable = errors.New("service unavailable")

func (s *recordingStore) Read(ctx context.Context, rng sheets.Range) ([][]string, error) {
	s.mu.Lock()
	if s.failRead {
		s.mu.Unlock()
		return nil, &sheets.StoreError{Op: "read", Range: rng.String(), Message: "test", Cause: errUnavailable}
	}
	if rng.StartCol == "A" && rng.EndCol == "F" && rng.Rows() == 1 {
		key := rng.String()
		s.inFlight[key]++
		s.maxFlight = max(s.maxFlight, s.inFlight[key])
	}
	delay := s.readDelay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return s.MemoryStore.Read(ctx, rng)
}

func (s *recordingStore) Write(ctx context.Context, rng sheets.Range, values [][]string) error {
	s.mu.Lock()
	if s.failWrite {
		s.mu.Unlock()
		return &sheets.StoreError{Op: "write", Range: rng.String(), Message: "test", Cause: errUnavailable}
	}
	key := rng.String()
	if s.inFlight[key] > 0 {
		s.inFlight[key]--
	}
	s.writes[key]++
	s.mu.Unlock()

	return s.MemoryStore.Write(ctx, rng, values)
}

type testRig struct {
	store  *recordingStore
	cursor *sheets.Cursor
	engine *Engine
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	store := newRecordingStore()
	cursor := sheets.NewCursor("", sheets.State{Title: "jobsheet", Next: sheets.FirstDataRange})
	index := NewIndex(store, cursor, similarity.NewLexical(), similarity.DefaultThreshold)
	engine := NewEngine(store, cursor, index, NewCounters(), Options{LockTimeout: 2 * time.Second})
	return &testRig{store: store, cursor: cursor, engine: engine}
}

// seed appends a row directly, bypassing the engine.
func (r *testRig) seed(t *testing.T, values ...string) sheets.Range {
	t.Helper()
	rng := r.cursor.Next()
	require.NoError(t, r.store.MemoryStore.Write(context.Background(), rng, [][]string{values}))
	require.NoError(t, r.cursor.Advance(1))
	return rng
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 9, 0, 0, 0, time.UTC)
}

func fact(company, role string, status types.Status, ts time.Time) *types.ClassifiedFact {
	return &types.ClassifiedFact{
		MessageID: company + "-" + string(status),
		Company:   company,
		Role:      role,
		Notes:     "note",
		Status:    status,
		Timestamp: ts,
		SourceRef: "https://mail.google.com/mail/u/me/#inbox/" + company,
	}
}
