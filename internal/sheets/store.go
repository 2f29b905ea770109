package sheets

import "context"

// Store is the two-dimensional grid of tracking rows.
type Store interface {
	// Read returns the cells in rng. Trailing empty rows and cells may be omitted.
	Read(ctx context.Context, rng Range) ([][]string, error)
	// Write replaces the cells in rng with values.
	Write(ctx context.Context, rng Range, values [][]string) error
}
