// Package sheets provides the tabular store backing the tracking sheet: A1 range
// addressing, the persisted append cursor, and Google Sheets / in-memory stores.
package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Range is a rectangular A1-notation block such as "A2:F2".
type Range struct {
	StartCol string
	StartRow int
	EndCol   string
	EndRow   int
}

// RowRange returns the full-width range of a single tracking row.
func RowRange(row int) Range {
	return Range{StartCol: "A", StartRow: row, EndCol: "F", EndRow: row}
}

// ParseRange parses "A2:F2". A single cell ("B3") yields a one-cell range.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "!"); i >= 0 {
		s = s[i+1:]
	}
	start, end, found := strings.Cut(s, ":")
	if !found {
		end = start
	}

	sc, sr, err := parseCell(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	ec, er, err := parseCell(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if er < sr {
		return Range{}, fmt.Errorf("invalid range %q: end row before start row", s)
	}
	return Range{StartCol: sc, StartRow: sr, EndCol: ec, EndRow: er}, nil
}

func parseCell(cell string) (string, int, error) {
	i := strings.IndexFunc(cell, unicode.IsDigit)
	if i <= 0 {
		return "", 0, fmt.Errorf("cell %q has no column or row", cell)
	}
	col := strings.ToUpper(cell[:i])
	for _, r := range col {
		if r < 'A' || r > 'Z' {
			return "", 0, fmt.Errorf("cell %q has invalid column", cell)
		}
	}
	row, err := strconv.Atoi(cell[i:])
	if err != nil || row < 1 {
		return "", 0, fmt.Errorf("cell %q has invalid row", cell)
	}
	return col, row, nil
}

func (r Range) String() string {
	return fmt.Sprintf("%s%d:%s%d", r.StartCol, r.StartRow, r.EndCol, r.EndRow)
}

// Shift moves the range down by n rows.
func (r Range) Shift(n int) Range {
	r.StartRow += n
	r.EndRow += n
	return r
}

// Rows is the number of rows the range spans.
func (r Range) Rows() int {
	return r.EndRow - r.StartRow + 1
}

// ColumnIndex converts a column name to a zero-based index ("A" -> 0, "AA" -> 26).
func ColumnIndex(col string) int {
	n := 0
	for _, r := range strings.ToUpper(col) {
		n = n*26 + int(r-'A'+1)
	}
	return n - 1
}
