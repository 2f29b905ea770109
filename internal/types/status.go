package types

import (
	"strings"
)

// Status is the lifecycle stage of a job application.
type Status string

// Status values, in the order used for summaries.
const (
	StatusApplication Status = "APPLICATION"
	StatusAssessment  Status = "ASSESSMENT"
	StatusInterview   Status = "INTERVIEW"
	StatusOffer       Status = "OFFER"
	StatusRejection   Status = "REJECTION"
)

// AllStatuses lists every status in summary order.
var AllStatuses = []Status{
	StatusApplication,
	StatusAssessment,
	StatusInterview,
	StatusOffer,
	StatusRejection,
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus matches text against the known statuses, ignoring case and surrounding space.
func ParseStatus(text string) (Status, bool) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(text)))
	if candidate.Valid() {
		return candidate, true
	}
	return "", false
}

// statusStems maps word stems found in noisy classifier output to a status.
// Later lifecycle stages are checked first so "application rejected" reads as a rejection.
var statusStems = []struct {
	stem   string
	status Status
}{
	{"reject", StatusRejection},
	{"offer", StatusOffer},
	{"interview", StatusInterview},
	{"assess", StatusAssessment},
	{"applic", StatusApplication},
	{"applied", StatusApplication},
}

// NearestStatus coerces free text into a Status. Exact matches win, then known word
// stems, then the status whose name scores highest against the text. Ties go to the
// earlier status in AllStatuses.
func NearestStatus(text string, score func(a, b string) float64) Status {
	if s, ok := ParseStatus(text); ok {
		return s
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, st := range statusStems {
		if strings.Contains(normalized, st.stem) {
			return st.status
		}
	}

	best := StatusApplication
	bestScore := -1.0
	for _, s := range AllStatuses {
		if sc := score(normalized, strings.ToLower(string(s))); sc > bestScore {
			best, bestScore = s, sc
		}
	}
	return best
}
