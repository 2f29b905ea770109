package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_WriteRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.Write(ctx, RowRange(2), [][]string{{"Acme", "Engineer", "d", "n", "link", "OFFER"}}))
	require.NoError(t, m.Write(ctx, RowRange(3), [][]string{{"Globex", "Analyst"}}))

	got, err := m.Read(ctx, Range{"A", 2, "B", 3})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Acme", "Engineer"}, {"Globex", "Analyst"}}, got)

	row, err := m.Read(ctx, RowRange(2))
	require.NoError(t, err)
	assert.Equal(t, "OFFER", row[0][5])
}

func TestMemoryStore_TrimsTrailingRows(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Write(ctx, RowRange(2), [][]string{{"Acme", "Engineer"}}))

	got, err := m.Read(ctx, Range{"A", 2, "B", 10})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	empty, err := m.Read(ctx, Range{"A", 20, "B", 30})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_Rows(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Write(ctx, Range{"A", 1, "F", 1}, [][]string{{"Company", "Role"}}))
	require.NoError(t, m.Write(ctx, RowRange(3), [][]string{{"Globex", "Analyst"}}))
	require.NoError(t, m.Write(ctx, RowRange(2), [][]string{{"Acme", "Engineer", "", "", "", "OFFER"}}))

	rows := m.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "A2:F2", rows[0].Range)
	assert.Equal(t, "OFFER", rows[0].Status)
	assert.Equal(t, "Globex", rows[1].Company)
}
