package mail

import "fmt"

// DecodeError represents a message whose body could not be found or decoded
type DecodeError struct {
	MessageID string
	Message   string
	Cause     error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode error: message %s: %s: %v", e.MessageID, e.Message, e.Cause)
	}
	return fmt.Sprintf("decode error: message %s: %s", e.MessageID, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// APICallError represents an error from the Gmail API
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gmail API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("gmail API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}
