package sheets

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// valueInputOption stores cells exactly as written. Company, role and notes come from
// inbound mail, so a leading "=" must never become a formula, and the date cell must keep
// the format the reconciler parses back.
const valueInputOption = "RAW"

// GoogleService creates spreadsheets and hands out stores bound to one of them.
type GoogleService struct {
	svc *sheetsapi.Service
}

// NewGoogleService builds a Sheets v4 client on top of an authorized HTTP client.
// Extra options such as option.WithEndpoint are applied after the client.
func NewGoogleService(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*GoogleService, error) {
	svc, err := sheetsapi.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &GoogleService{svc: svc}, nil
}

// CreateSpreadsheet creates a new spreadsheet and returns its id.
func (g *GoogleService) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	spreadsheet := &sheetsapi.Spreadsheet{
		Properties: &sheetsapi.SpreadsheetProperties{Title: title},
	}
	resp, err := g.svc.Spreadsheets.Create(spreadsheet).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return "", &StoreError{Op: "create", Message: fmt.Sprintf("failed to create spreadsheet %q", title), Cause: err}
	}
	return resp.SpreadsheetId, nil
}

// StoreFor returns a store reading and writing the given spreadsheet.
func (g *GoogleService) StoreFor(spreadsheetID string) Store {
	return &GoogleStore{svc: g.svc, spreadsheetID: spreadsheetID}
}

// GoogleStore implements Store on one Google spreadsheet.
type GoogleStore struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// Read implements Store.
func (s *GoogleStore) Read(ctx context.Context, rng Range) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng.String()).Context(ctx).Do()
	if err != nil {
		return nil, &StoreError{Op: "read", Range: rng.String(), Message: "values.get failed", Cause: err}
	}
	return cellsToStrings(resp.Values), nil
}

// Write implements Store.
func (s *GoogleStore) Write(ctx context.Context, rng Range, values [][]string) error {
	body := &sheetsapi.ValueRange{Values: stringsToCells(values)}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng.String(), body).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return &StoreError{Op: "write", Range: rng.String(), Message: "values.update failed", Cause: err}
	}
	return nil
}

func cellsToStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = fmt.Sprint(cell)
		}
	}
	return out
}

func stringsToCells(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		out[i] = make([]interface{}, len(row))
		for j, cell := range row {
			out[i][j] = cell
		}
	}
	return out
}
