package sheets

import (
	"context"
	"sort"
	"sync"

	"github.com/jonathan/jobsheet/internal/types"
)

// MemoryStore is an in-process Store used for dry runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[int][]string
}

// NewMemoryStore returns an empty grid.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int][]string)}
}

// Read implements Store. Like Sheets, trailing empty cells and rows are dropped.
func (m *MemoryStore) Read(_ context.Context, rng Range) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	first, last := ColumnIndex(rng.StartCol), ColumnIndex(rng.EndCol)
	out := make([][]string, 0, rng.Rows())
	for r := rng.StartRow; r <= rng.EndRow; r++ {
		stored := m.rows[r]
		var row []string
		for c := first; c <= last && c < len(stored); c++ {
			row = append(row, stored[c])
		}
		out = append(out, trimRow(row))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// Write implements Store.
func (m *MemoryStore) Write(_ context.Context, rng Range, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	first := ColumnIndex(rng.StartCol)
	for i, vals := range values {
		r := rng.StartRow + i
		if r > rng.EndRow {
			break
		}
		row := m.rows[r]
		if need := first + len(vals); len(row) < need {
			row = append(row, make([]string, need-len(row))...)
		}
		copy(row[first:], vals)
		m.rows[r] = row
	}
	return nil
}

// Rows returns every non-empty row below the header in row order.
func (m *MemoryStore) Rows() []types.TrackingRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]int, 0, len(m.rows))
	for r := range m.rows {
		if r > 1 {
			keys = append(keys, r)
		}
	}
	sort.Ints(keys)

	out := make([]types.TrackingRow, 0, len(keys))
	for _, r := range keys {
		out = append(out, types.RowFromValues(RowRange(r).String(), m.rows[r]))
	}
	return out
}

func trimRow(row []string) []string {
	for len(row) > 0 && row[len(row)-1] == "" {
		row = row[:len(row)-1]
	}
	return row
}
