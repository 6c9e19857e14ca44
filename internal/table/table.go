package table

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Table is tabular data parsed from a CSV export, first record treated as header.
type Table struct {
	Columns []string
	Rows    [][]string
}

// httpClient is used for CSV downloads. Best-effort fetches should not hang
// the finalization path, hence the short timeout.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// Parse reads CSV content into a Table.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	return &Table{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

// Fetch downloads and parses a CSV export. Callers treat failure as a
// warning; the message still displays without its data table.
func Fetch(ctx context.Context, url string) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build csv request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch csv: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch csv: unexpected status %d", resp.StatusCode)
	}
	return Parse(resp.Body)
}
