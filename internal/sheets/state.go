package sheets

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FirstDataRange is where the first tracking row goes, below the header.
var FirstDataRange = RowRange(2)

// State is the side file content: spreadsheet id, title and next free row range.
type State struct {
	SpreadsheetID string
	Title         string
	Next          Range
}

// LoadState reads the three-line side file. A missing file returns (nil, nil).
func LoadState(path string) (*State, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StateError{Path: path, Message: "failed to open", Cause: err}
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, &StateError{Path: path, Message: "failed to read", Cause: err}
	}
	if len(lines) < 3 {
		return nil, &StateError{Path: path, Message: fmt.Sprintf("expected 3 lines, found %d", len(lines))}
	}

	next, err := ParseRange(lines[2])
	if err != nil {
		return nil, &StateError{Path: path, Message: "invalid next range", Cause: err}
	}
	return &State{SpreadsheetID: lines[0], Title: lines[1], Next: next}, nil
}

// SaveState replaces the side file atomically through a temp file and rename.
func SaveState(path string, st State) error {
	content := fmt.Sprintf("%s\n%s\n%s", st.SpreadsheetID, st.Title, st.Next)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheet-state-*")
	if err != nil {
		return &StateError{Path: path, Message: "failed to create temp file", Cause: err}
	}
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return &StateError{Path: path, Message: "failed to write", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return &StateError{Path: path, Message: "failed to close", Cause: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return &StateError{Path: path, Message: "failed to replace", Cause: err}
	}
	return nil
}

// Cursor is the shared append pointer. Reads are safe from any goroutine; callers
// that reserve and write a row must serialize Next+Advance themselves.
type Cursor struct {
	mu    sync.RWMutex
	path  string
	state State
}

// NewCursor wraps st. When path is empty the cursor is never persisted.
func NewCursor(path string, st State) *Cursor {
	return &Cursor{path: path, state: st}
}

// Next returns the next free row range.
func (c *Cursor) Next() Range {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Next
}

// State returns a copy of the current state.
func (c *Cursor) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Advance moves the pointer down n rows and persists it. The in-memory pointer moves
// even when persisting fails.
func (c *Cursor) Advance(n int) error {
	c.mu.Lock()
	c.state.Next = c.state.Next.Shift(n)
	st := c.state
	c.mu.Unlock()

	if c.path == "" {
		return nil
	}
	return SaveState(c.path, st)
}
