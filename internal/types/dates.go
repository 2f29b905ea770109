package types

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// MailDateLayout is the fixed layout of dates stored in tracking rows,
// e.g. "Tue, 02 Jan 2024 15:04:05 +0000".
const MailDateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// mailDateWidth is the length of a date rendered with MailDateLayout.
const mailDateWidth = len(MailDateLayout)

var mailDatePattern = regexp.MustCompile(`^\w{3}, \d{2} \w{3} \d{4} \d{2}:\d{2}:\d{2} [-+]\d{4}`)

// ParseError represents a date string that does not match the expected format
type ParseError struct {
	Value   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s %q: %v", e.Message, e.Value, e.Cause)
	}
	return fmt.Sprintf("parse error: %s %q", e.Message, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ParseMailDate parses a Date header. Headers often carry a trailing zone comment
// such as "(UTC)", so only the first len(MailDateLayout) characters are read for the
// fixed layout; anything else is handed to the RFC 5322 parser.
func ParseMailDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &ParseError{Value: value, Message: "empty date"}
	}

	if t, err := ParseRowDate(value); err == nil {
		return t, nil
	}

	t, err := mail.ParseDate(value)
	if err != nil {
		return time.Time{}, &ParseError{Value: value, Message: "unrecognized mail date", Cause: err}
	}
	return t, nil
}

// ParseRowDate parses a date in the exact fixed layout only.
func ParseRowDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if !mailDatePattern.MatchString(value) {
		return time.Time{}, &ParseError{Value: value, Message: "date does not match " + MailDateLayout}
	}
	t, err := time.Parse(MailDateLayout, value[:mailDateWidth])
	if err != nil {
		return time.Time{}, &ParseError{Value: value, Message: "invalid date", Cause: err}
	}
	return t, nil
}

// FindRowDate returns the first cell of a stored row holding a fixed-layout date.
func FindRowDate(cells []string) (time.Time, bool) {
	for _, cell := range cells {
		if t, err := ParseRowDate(cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatRowDate renders t in the fixed row layout.
func FormatRowDate(t time.Time) string {
	return t.Format(MailDateLayout)
}
