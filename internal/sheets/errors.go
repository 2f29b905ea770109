package sheets

import "fmt"

// StoreError represents the spreadsheet service being unreachable or failing a request
type StoreError struct {
	Op      string
	Range   string
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	where := e.Op
	if e.Range != "" {
		where = fmt.Sprintf("%s %s", e.Op, e.Range)
	}
	if e.Cause != nil {
		return fmt.Sprintf("store unavailable: %s: %s: %v", where, e.Message, e.Cause)
	}
	return fmt.Sprintf("store unavailable: %s: %s", where, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// StateError represents a corrupt or unreadable side file
type StateError struct {
	Path    string
	Message string
	Cause   error
}

func (e *StateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sheet state %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("sheet state %s: %s", e.Path, e.Message)
}

func (e *StateError) Unwrap() error {
	return e.Cause
}
