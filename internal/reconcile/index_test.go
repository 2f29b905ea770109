package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/jobsheet/internal/sheets"
	"github.com/jonathan/jobsheet/internal/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexFind_EmptySheet(t *testing.T) {
	rig := newRig(t)

	_, found, err := rig.engine.index.Find(context.Background(), "Acme", "Engineer")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIndexFind_FuzzyRole(t *testing.T) {
	rig := newRig(t)
	rig.seed(t, "Globex", "Analyst")
	want := rig.seed(t, "Acme", "Software Engineer")

	rng, found, err := rig.engine.index.Find(context.Background(), "ACME ", "Software Engineer I")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, rng)
}

func TestIndexFind_CompanyMustMatchExactly(t *testing.T) {
	rig := newRig(t)
	rig.seed(t, "Acme", "Engineer")

	_, found, err := rig.engine.index.Find(context.Background(), "Acme Corp", "Engineer")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIndexFind_DifferentRole(t *testing.T) {
	rig := newRig(t)
	rig.seed(t, "Acme", "Software Engineer")

	_, found, err := rig.engine.index.Find(context.Background(), "Acme", "Product Manager")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIndexFind_FirstMatchInRowOrder(t *testing.T) {
	rig := newRig(t)
	first := rig.seed(t, "Acme", "Backend Engineer")
	rig.seed(t, "Acme", "Senior Backend Engineer")

	// Both rows clear the threshold; the earlier row wins even though the later
	// one is an exact match.
	rng, found, err := rig.engine.index.Find(context.Background(), "Acme", "Senior Backend Engineer")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first, rng)
}

func TestIndexFind_SkipsShortRows(t *testing.T) {
	rig := newRig(t)
	rig.seed(t, "Acme")
	want := rig.seed(t, "Acme", "Engineer")

	rng, found, err := rig.engine.index.Find(context.Background(), "acme", "engineer")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, rng)
}

func TestIndexFind_StoreUnavailable(t *testing.T) {
	rig := newRig(t)
	rig.seed(t, "Acme", "Engineer")
	rig.store.failRead = true

	_, _, err := rig.engine.index.Find(context.Background(), "Acme", "Engineer")
	var storeErr *sheets.StoreError
	require.True(t, errors.As(err, &storeErr))

	var lookupErr *LookupError
	assert.True(t, errors.As(err, &lookupErr))
}

type failingScorer struct{}

func (failingScorer) Similarity(context.Context, string, string) (float64, error) {
	return 0, errors.New("embedding quota exceeded")
}

func TestIndexFind_ScorerError(t *testing.T) {
	store := sheets.NewMemoryStore()
	cursor := sheets.NewCursor("", sheets.State{Next: sheets.FirstDataRange})
	require.NoError(t, store.Write(context.Background(), cursor.Next(), [][]string{{"Acme", "Engineer"}}))
	require.NoError(t, cursor.Advance(1))

	ix := NewIndex(store, cursor, failingScorer{}, 0)
	_, _, err := ix.Find(context.Background(), "Acme", "Engineer")
	assert.ErrorContains(t, err, "row 2")
}

func TestNewIndex_DefaultThreshold(t *testing.T) {
	ix := NewIndex(sheets.NewMemoryStore(), sheets.NewCursor("", sheets.State{Next: sheets.FirstDataRange}), similarity.NewLexical(), 0)
	assert.Equal(t, similarity.DefaultThreshold, ix.threshold)
}
