package types

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RowHeader is the first row written to a new tracking sheet.
var RowHeader = []string{"Company", "Role", "Date", "Notes", "Most Recent Email", "Status"}

// RowWidth is the number of columns in a tracking row.
const RowWidth = 6

// MaxNoteWords bounds the notes kept for a fact.
const MaxNoteWords = 20

// ClassifiedFact is one classified, timestamped application update extracted from a single email.
type ClassifiedFact struct {
	MessageID string    `json:"message_id"`
	Company   string    `json:"company" validate:"required"`
	Role      string    `json:"role" validate:"required"`
	Notes     string    `json:"notes,omitempty"`
	Status    Status    `json:"status" validate:"required,oneof=APPLICATION ASSESSMENT INTERVIEW OFFER REJECTION"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	SourceRef string    `json:"source_ref,omitempty"`
}

// Validate validates the ClassifiedFact using the validator.
func (f *ClassifiedFact) Validate() error {
	validate := validator.New()
	return validate.Struct(f)
}

// Values renders the fact as a tracking row in column order.
func (f *ClassifiedFact) Values() []string {
	return []string{
		strings.TrimSpace(f.Company),
		strings.TrimSpace(f.Role),
		FormatRowDate(f.Timestamp),
		f.Notes,
		f.SourceRef,
		string(f.Status),
	}
}

// TrackingRow is one persisted record in the tracking sheet.
type TrackingRow struct {
	Range     string `json:"range"`
	Company   string `json:"company"`
	Role      string `json:"role"`
	Date      string `json:"date"`
	Notes     string `json:"notes"`
	SourceRef string `json:"source_ref"`
	Status    string `json:"status"`
}

// RowFromValues maps stored cells onto a TrackingRow; missing trailing cells stay empty.
func RowFromValues(rng string, cells []string) TrackingRow {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return TrackingRow{
		Range:     rng,
		Company:   get(0),
		Role:      get(1),
		Date:      get(2),
		Notes:     get(3),
		SourceRef: get(4),
		Status:    get(5),
	}
}

// TruncateWords keeps at most n whitespace-separated words of text.
func TruncateWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
