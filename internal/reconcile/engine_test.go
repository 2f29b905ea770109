package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonathan/jobsheet/internal/sheets"
	"github.com/jonathan/jobsheet/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_InsertsNewRow(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()

	res, err := rig.engine.Reconcile(ctx, fact("Acme", "Engineer", types.StatusApplication, day(1)))
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeInserted, res.Outcome)
	assert.Equal(t, sheets.RowRange(2), res.Range)
	assert.Equal(t, sheets.RowRange(3), rig.cursor.Next())

	rows := rig.store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].Company)
	assert.Equal(t, "APPLICATION", rows[0].Status)
	assert.Equal(t, "Mon, 01 Jan 2024 09:00:00 +0000", rows[0].Date)
	assert.Equal(t, 1, rig.engine.Counters().Snapshot()[types.StatusApplication])
}

func TestReconcile_NoDuplicateRowsUnderConcurrency(t *testing.T) {
	for _, n := range []int{2, 8, 32} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			rig := newRig(t)
			rig.store.readDelay = time.Millisecond
			ctx := context.Background()

			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					f := fact("Acme", "Software Engineer", types.StatusInterview, day(1+i%20))
					_, err := rig.engine.Reconcile(ctx, f)
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			assert.Len(t, rig.store.Rows(), 1)
			assert.Equal(t, sheets.RowRange(3), rig.cursor.Next())
			assert.Equal(t, n, rig.engine.Counters().Snapshot()[types.StatusInterview])
		})
	}
}

func TestReconcile_NewestWins(t *testing.T) {
	tests := []struct {
		name        string
		stored      time.Time
		incoming    time.Time
		wantOutcome types.Outcome
		wantStatus  string
	}{
		{"newer overwrites", day(1), day(3), types.OutcomeUpdated, "OFFER"},
		{"same instant overwrites", day(2), day(2), types.OutcomeUpdated, "OFFER"},
		{"older is stale", day(3), day(1), types.OutcomeStale, "INTERVIEW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newRig(t)
			rng := rig.seed(t, "Acme", "Engineer", types.FormatRowDate(tt.stored), "", "", "INTERVIEW")

			res, err := rig.engine.Reconcile(context.Background(), fact("Acme", "Engineer", types.StatusOffer, tt.incoming))
			require.NoError(t, err)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, rng, res.Range)
			rows := rig.store.Rows()
			require.Len(t, rows, 1)
			assert.Equal(t, tt.wantStatus, rows[0].Status)

			// Stale facts are still acknowledged under their own status.
			assert.Equal(t, 1, rig.engine.Counters().Snapshot()[types.StatusOffer])
		})
	}
}

func TestReconcile_UnparseableStoredDateIsNotStale(t *testing.T) {
	rig := newRig(t)
	rig.seed(t, "Acme", "Engineer", "last tuesday", "", "", "APPLICATION")

	res, err := rig.engine.Reconcile(context.Background(), fact("Acme", "Engineer", types.StatusRejection, day(1)))
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeUpdated, res.Outcome)
	assert.Equal(t, "REJECTION", rig.store.Rows()[0].Status)
}

func TestReconcile_OutOfOrderScenario(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	a := fact("Acme", "Engineer", types.StatusInterview, day(1))
	b := fact("Acme", "Engineer", types.StatusOffer, day(3))

	// B is delivered first; A is released only after B's row is written.
	bWritten := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(bWritten)
		_, err := rig.engine.Reconcile(ctx, b)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		<-bWritten
		assert.Len(t, rig.store.Rows(), 1)
		_, err := rig.engine.Reconcile(ctx, a)
		assert.NoError(t, err)
	}()
	wg.Wait()

	rows := rig.store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "OFFER", rows[0].Status)
	assert.Equal(t, types.FormatRowDate(day(3)), rows[0].Date)

	want := map[types.Status]int{
		types.StatusApplication: 0,
		types.StatusAssessment:  0,
		types.StatusInterview:   1,
		types.StatusOffer:       1,
		types.StatusRejection:   0,
	}
	if diff := cmp.Diff(want, rig.engine.Counters().Snapshot()); diff != "" {
		t.Errorf("counters mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_RangeLockMutualExclusion(t *testing.T) {
	rig := newRig(t)
	rng := rig.seed(t, "Acme", "Engineer", types.FormatRowDate(day(1)), "", "", "APPLICATION")
	rig.store.readDelay = 2 * time.Millisecond
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Equal timestamps always overwrite, so every fact is a full read-modify-write.
			_, err := rig.engine.Reconcile(ctx, fact("Acme", "Engineer", types.StatusAssessment, day(1)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, rig.store.maxFlight, "read-modify-write sequences on one row interleaved")
	assert.Equal(t, n, rig.store.writes[rng.String()])
	assert.False(t, rig.engine.ranges.Held(rng.String()))
}

func TestReconcile_CounterConservation(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()

	facts := []*types.ClassifiedFact{
		fact("Acme", "Engineer", types.StatusApplication, day(1)),
		fact("Acme", "Engineer", types.StatusInterview, day(5)),
		fact("Acme", "Engineer", types.StatusAssessment, day(2)),
		fact("Globex", "Analyst", types.StatusApplication, day(1)),
		fact("Globex", "Analyst", types.StatusRejection, day(9)),
		fact("Initech", "Developer", types.StatusOffer, day(4)),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	decisions := 0
	for _, f := range facts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rig.engine.Reconcile(ctx, f); err == nil {
				mu.Lock()
				decisions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, n := range rig.engine.Counters().Snapshot() {
		total += n
	}
	assert.Equal(t, len(facts), decisions)
	assert.Equal(t, decisions, total)
	assert.Len(t, rig.store.Rows(), 3)
}

func TestReconcile_StoreFailureReleasesLock(t *testing.T) {
	rig := newRig(t)
	rng := rig.seed(t, "Acme", "Engineer", types.FormatRowDate(day(1)), "", "", "APPLICATION")
	rig.store.failWrite = true

	_, err := rig.engine.Reconcile(context.Background(), fact("Acme", "Engineer", types.StatusOffer, day(2)))
	var storeErr *sheets.StoreError
	require.True(t, errors.As(err, &storeErr))

	assert.False(t, rig.engine.ranges.Held(rng.String()))
	assert.Equal(t, 0, rig.engine.Counters().Snapshot()[types.StatusOffer])
}

func TestReconcile_InsertFailureDoesNotAdvanceCursor(t *testing.T) {
	rig := newRig(t)
	rig.store.failWrite = true

	_, err := rig.engine.Reconcile(context.Background(), fact("Acme", "Engineer", types.StatusOffer, day(2)))
	require.Error(t, err)

	assert.Equal(t, sheets.FirstDataRange, rig.cursor.Next())
	assert.Equal(t, 0, rig.engine.Counters().Snapshot()[types.StatusOffer])
}

func TestReconcile_LockTimeout(t *testing.T) {
	rig := newRig(t)
	rng := rig.seed(t, "Acme", "Engineer", types.FormatRowDate(day(1)), "", "", "APPLICATION")
	rig.engine.lockTimeout = 20 * time.Millisecond

	release, err := rig.engine.ranges.Acquire(context.Background(), rng.String(), time.Second)
	require.NoError(t, err)
	defer release()

	_, err = rig.engine.Reconcile(context.Background(), fact("Acme", "Engineer", types.StatusOffer, day(2)))
	var timeoutErr *LockTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, rng.String(), timeoutErr.Range)
	assert.Equal(t, 0, rig.engine.Counters().Snapshot()[types.StatusOffer])
}

func TestNewEngine_Defaults(t *testing.T) {
	store := sheets.NewMemoryStore()
	cursor := sheets.NewCursor("", sheets.State{Next: sheets.FirstDataRange})
	e := NewEngine(store, cursor, NewIndex(store, cursor, nil, 0), nil, Options{})

	assert.Equal(t, DefaultLockTimeout, e.lockTimeout)
	assert.NotNil(t, e.Counters())
	assert.NotNil(t, e.logger)
}
