package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobsheet/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS sessions")
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS session_facts")
}

func TestCountsRoundTrip(t *testing.T) {
	counts := map[types.Status]int{
		types.StatusApplication: 3,
		types.StatusRejection:   1,
	}

	data, err := encodeCounts(counts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"APPLICATION": 3, "REJECTION": 1}`, string(data))

	decoded, err := decodeCounts(data)
	require.NoError(t, err)
	assert.Equal(t, 3, decoded[types.StatusApplication])
	assert.Equal(t, 1, decoded[types.StatusRejection])
	assert.Equal(t, 0, decoded[types.StatusOffer])
	assert.Len(t, decoded, len(types.AllStatuses))
}

func TestDecodeCounts_Empty(t *testing.T) {
	decoded, err := decodeCounts(nil)
	require.NoError(t, err)
	assert.Len(t, decoded, len(types.AllStatuses))
}

func TestDecodeCounts_Invalid(t *testing.T) {
	_, err := decodeCounts([]byte("not json"))
	assert.Error(t, err)
}

func TestSessionSummary(t *testing.T) {
	s := Session{
		ID:       uuid.New(),
		Days:     7,
		Elapsed:  1500 * time.Millisecond,
		Counts:   map[types.Status]int{types.StatusOffer: 2},
		Inserted: 1,
		Updated:  1,
	}

	summary := s.Summary()
	assert.Equal(t, s.ID, summary.ID)
	assert.Equal(t, 7, summary.Days)
	assert.Equal(t, 2, summary.Total())
	assert.Equal(t, 1500*time.Millisecond, summary.Elapsed)
}
