package classify

import "fmt"

// ClassificationError represents a message the model could not turn into a fact
type ClassificationError struct {
	MessageID string
	Message   string
	Cause     error
}

func (e *ClassificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("classification failed for %s: %s: %v", e.MessageID, e.Message, e.Cause)
	}
	return fmt.Sprintf("classification failed for %s: %s", e.MessageID, e.Message)
}

func (e *ClassificationError) Unwrap() error {
	return e.Cause
}
