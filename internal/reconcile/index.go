package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/jobsheet/internal/sheets"
	"github.com/jonathan/jobsheet/internal/similarity"
)

// Index resolves a (company, role) pair to the row already tracking it. Every lookup
// scans the current sheet; nothing is cached between calls.
type Index struct {
	store     sheets.Store
	cursor    *sheets.Cursor
	scorer    similarity.Scorer
	threshold float64
}

// NewIndex creates an index over store. Rows are read from the first data row up to
// the row before the cursor. A non-positive threshold uses similarity.DefaultThreshold.
func NewIndex(store sheets.Store, cursor *sheets.Cursor, scorer similarity.Scorer, threshold float64) *Index {
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}
	return &Index{store: store, cursor: cursor, scorer: scorer, threshold: threshold}
}

// Find returns the first row, in row order, whose company equals company (ignoring
// case) and whose role scores above the threshold against role.
func (ix *Index) Find(ctx context.Context, company, role string) (sheets.Range, bool, error) {
	first := sheets.FirstDataRange.StartRow
	last := ix.cursor.Next().StartRow - 1
	if last < first {
		return sheets.Range{}, false, nil
	}

	keys := sheets.Range{StartCol: "A", StartRow: first, EndCol: "B", EndRow: last}
	rows, err := ix.store.Read(ctx, keys)
	if err != nil {
		return sheets.Range{}, false, &LookupError{Company: company, Role: role, Message: "failed to read index", Cause: err}
	}

	wantCompany := normalizeCompany(company)
	for i, row := range rows {
		if len(row) < 2 || normalizeCompany(row[0]) != wantCompany {
			continue
		}
		score, err := ix.scorer.Similarity(ctx, row[1], role)
		if err != nil {
			return sheets.Range{}, false, &LookupError{
				Company: company,
				Role:    role,
				Message: fmt.Sprintf("failed to score row %d", first+i),
				Cause:   err,
			}
		}
		if score > ix.threshold {
			return sheets.RowRange(first + i), true, nil
		}
	}
	return sheets.Range{}, false, nil
}

func normalizeCompany(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
