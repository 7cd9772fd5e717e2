package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// QueryResult is the outcome of one SQL statement.
type QueryResult struct {
	Columns         []string `json:"columns"`
	ColumnTypes     []string `json:"columnTypes,omitempty"`
	Rows            [][]any  `json:"rows"`
	RowsAffected    int64    `json:"rowsAffected"`
	LastInsertRowID *int64   `json:"lastInsertRowid,omitempty"`
}

func decodeQueryResult(data []byte) (*QueryResult, error) {
	var r QueryResult
	if err := decodeRecord(data, &r, "columns", "rows"); err != nil {
		return nil, fmt.Errorf("query result: %w", err)
	}
	return &r, nil
}

// Execute runs a single statement against the account's database.
func (c *Client) Execute(ctx context.Context, statement string) (*QueryResult, error) {
	body := struct {
		Statement string `json:"statement"`
	}{Statement: statement}
	data, err := c.call(ctx, http.MethodPost, "/v1/sqlite/execute", body)
	if err != nil {
		return nil, err
	}
	return decodeQueryResult(data)
}

// Batch runs statements in one transaction and returns one result per statement.
func (c *Client) Batch(ctx context.Context, statements []string) ([]QueryResult, error) {
	body := struct {
		Statements []string `json:"statements"`
		Mode       string   `json:"mode,omitempty"`
	}{Statements: statements, Mode: "write"}
	data, err := c.call(ctx, http.MethodPost, "/v1/sqlite/batch", body)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("batch: %w: %w", ErrDecode, err)
	}
	results := make([]QueryResult, 0, len(items))
	for _, item := range items {
		r, err := decodeQueryResult(item)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, nil
}

// Tables lists table names in the account's database.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	res, err := c.Execute(ctx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) == 0 {
			continue
		}
		if name, ok := row[0].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}
