package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  Status
		ok    bool
	}{
		{"OFFER", StatusOffer, true},
		{" interview\n", StatusInterview, true},
		{"Rejection", StatusRejection, true},
		{"rejected", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseStatus(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNearestStatus_Stems(t *testing.T) {
	noScore := func(a, b string) float64 { return 0 }

	assert.Equal(t, StatusRejection, NearestStatus("Your application was rejected", noScore))
	assert.Equal(t, StatusOffer, NearestStatus("offered", noScore))
	assert.Equal(t, StatusAssessment, NearestStatus("online assessments", noScore))
	assert.Equal(t, StatusApplication, NearestStatus("applied", noScore))
}

func TestNearestStatus_UsesScore(t *testing.T) {
	score := func(a, b string) float64 {
		if b == "interview" {
			return 0.9
		}
		return 0.1
	}

	assert.Equal(t, StatusInterview, NearestStatus("phone screen", score))
}

func TestNearestStatus_TieGoesToFirst(t *testing.T) {
	flat := func(a, b string) float64 { return 0.5 }

	assert.Equal(t, StatusApplication, NearestStatus("unclear", flat))
}

func TestStatusValid(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("PENDING").Valid())
}
