package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const headerRange = "1:1"

// Client reads and writes the first sheet of a spreadsheet.
type Client struct {
	svc *sheets.Service
}

// NewClient authenticates with a service account. credentialsJSON wins over
// credentialsPath when both are set.
func NewClient(ctx context.Context, credentialsPath, credentialsJSON string) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case credentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ReadHeader returns the first row, or nil for an empty sheet.
func (c *Client) ReadHeader(ctx context.Context, spreadsheetID string) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	header := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		header = append(header, fmt.Sprint(cell))
	}
	return header, nil
}

func (c *Client) WriteHeader(ctx context.Context, spreadsheetID string, header []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{cells(header)}}
	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, headerRange, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	return nil
}

// AppendRow adds row below the last data row. Values are stored RAW so a
// submitted "=FORMULA()" stays text.
func (c *Client) AppendRow(ctx context.Context, spreadsheetID string, row []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{cells(row)}}
	_, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, "A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

func cells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
