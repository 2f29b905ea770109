package sheets

import (
	"context"
	"fmt"

	"github.com/jonathan/jobsheet/internal/types"
	"go.uber.org/zap"
)

// Provisioner creates spreadsheets and binds stores to them.
type Provisioner interface {
	CreateSpreadsheet(ctx context.Context, title string) (string, error)
	StoreFor(spreadsheetID string) Store
}

// Open returns the store and append cursor for the tracking sheet named title. When the
// side file at statePath is missing or names a different title, a new spreadsheet is
// created, its header row written and the side file reset to the first data row.
func Open(ctx context.Context, p Provisioner, statePath, title string, logger *zap.Logger) (Store, *Cursor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	st, err := LoadState(statePath)
	if err != nil {
		return nil, nil, err
	}
	if st != nil && st.Title == title {
		logger.Debug("using existing tracking sheet",
			zap.String("spreadsheet_id", st.SpreadsheetID),
			zap.String("next", st.Next.String()))
		return p.StoreFor(st.SpreadsheetID), NewCursor(statePath, *st), nil
	}

	id, err := p.CreateSpreadsheet(ctx, title)
	if err != nil {
		return nil, nil, err
	}
	store := p.StoreFor(id)

	header := Range{StartCol: "A", StartRow: 1, EndCol: "F", EndRow: 1}
	if err := store.Write(ctx, header, [][]string{types.RowHeader}); err != nil {
		return nil, nil, fmt.Errorf("failed to write header row: %w", err)
	}

	fresh := State{SpreadsheetID: id, Title: title, Next: FirstDataRange}
	if err := SaveState(statePath, fresh); err != nil {
		return nil, nil, err
	}
	logger.Info("created tracking sheet", zap.String("spreadsheet_id", id), zap.String("title", title))
	return store, NewCursor(statePath, fresh), nil
}
