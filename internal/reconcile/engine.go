package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/jobsheet/internal/sheets"
	"github.com/jonathan/jobsheet/internal/types"
	"go.uber.org/zap"
)

// DefaultLockTimeout bounds how long a worker waits for another worker's range lock.
const DefaultLockTimeout = 30 * time.Second

// Options configures an Engine.
type Options struct {
	LockTimeout time.Duration
	Logger      *zap.Logger
}

// Result is the decision reached for one fact.
type Result struct {
	Outcome types.Outcome
	Range   sheets.Range
}

// Engine commits one row mutation and one counter increment per fact.
//
// Lock domains: newEntry serializes cursor reservation with the row write for new
// pairs; ranges serializes read-modify-write of existing rows; counters guard only the
// increments. A range lock is never taken while newEntry is held, and counters are
// incremented after every other lock is released.
type Engine struct {
	store    sheets.Store
	cursor   *sheets.Cursor
	index    *Index
	ranges   *RangeLocks
	counters *Counters
	newEntry sync.Mutex

	lockTimeout time.Duration
	logger      *zap.Logger
}

// NewEngine wires an engine over shared state.
func NewEngine(store sheets.Store, cursor *sheets.Cursor, index *Index, counters *Counters, opts Options) *Engine {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if counters == nil {
		counters = NewCounters()
	}
	return &Engine{
		store:       store,
		cursor:      cursor,
		index:       index,
		ranges:      NewRangeLocks(),
		counters:    counters,
		lockTimeout: opts.LockTimeout,
		logger:      opts.Logger,
	}
}

// Counters exposes the per-status counters for the session summary.
func (e *Engine) Counters() *Counters {
	return e.counters
}

// Reconcile merges fact into the sheet. On success exactly one counter, the one for
// fact.Status, has been incremented; on error nothing has been counted.
func (e *Engine) Reconcile(ctx context.Context, fact *types.ClassifiedFact) (Result, error) {
	rng, found, err := e.index.Find(ctx, fact.Company, fact.Role)
	if err != nil {
		return Result{}, err
	}

	if !found {
		var inserted bool
		rng, inserted, err = e.insert(ctx, fact)
		if err != nil {
			return Result{}, err
		}
		if inserted {
			e.counters.Inc(fact.Status)
			return Result{Outcome: types.OutcomeInserted, Range: rng}, nil
		}
		e.logger.Debug("pair inserted concurrently, updating instead",
			zap.String("company", fact.Company),
			zap.String("role", fact.Role),
			zap.String("range", rng.String()))
	}

	outcome, err := e.update(ctx, rng, fact)
	if err != nil {
		return Result{}, err
	}
	e.counters.Inc(fact.Status)
	return Result{Outcome: outcome, Range: rng}, nil
}

// insert appends a new row under the new-entry lock. The lookup is repeated under the
// lock; if another worker inserted the pair in the meantime its range is returned with
// inserted=false.
func (e *Engine) insert(ctx context.Context, fact *types.ClassifiedFact) (sheets.Range, bool, error) {
	e.newEntry.Lock()
	defer e.newEntry.Unlock()

	if rng, found, err := e.index.Find(ctx, fact.Company, fact.Role); err != nil || found {
		return rng, false, err
	}

	rng := e.cursor.Next()
	if err := e.store.Write(ctx, rng, [][]string{fact.Values()}); err != nil {
		return sheets.Range{}, false, fmt.Errorf("failed to append row %s: %w", rng, err)
	}
	if err := e.cursor.Advance(1); err != nil {
		// The row is written and the in-memory cursor has moved, so this session stays
		// consistent; only the next run would start from a stale pointer.
		e.logger.Warn("failed to persist append cursor", zap.String("range", rng.String()), zap.Error(err))
	}
	return rng, true, nil
}

// update overwrites rng with fact unless the stored row is newer.
func (e *Engine) update(ctx context.Context, rng sheets.Range, fact *types.ClassifiedFact) (types.Outcome, error) {
	release, err := e.ranges.Acquire(ctx, rng.String(), e.lockTimeout)
	if err != nil {
		return "", err
	}
	defer release()

	current, err := e.store.Read(ctx, rng)
	if err != nil {
		return "", fmt.Errorf("failed to re-read row %s: %w", rng, err)
	}

	var cells []string
	if len(current) > 0 {
		cells = current[0]
	}
	if stored, ok := types.FindRowDate(cells); ok && stored.After(fact.Timestamp) {
		e.logger.Debug("stale fact, row is newer",
			zap.String("range", rng.String()),
			zap.Time("stored", stored),
			zap.Time("fact", fact.Timestamp))
		return types.OutcomeStale, nil
	}

	if err := e.store.Write(ctx, rng, [][]string{fact.Values()}); err != nil {
		return "", fmt.Errorf("failed to update row %s: %w", rng, err)
	}
	return types.OutcomeUpdated, nil
}
