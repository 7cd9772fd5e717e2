// Package sqldump turns a CSV file or a table of a local SQLite database into
// the SQL statements that recreate it, for `vt table import`.
package sqldump

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrTableNotFound is returned when the source database has no such table.
var ErrTableNotFound = errors.New("table not found")

// FromCSV loads CSV data (first row is the header) into a table with TEXT
// columns and returns its CREATE TABLE and INSERT statements.
func FromCSV(ctx context.Context, r io.Reader, table string) ([]string, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("table name is required")
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header row")
		}
		return nil, fmt.Errorf("csv: %w", err)
	}

	db, err := openMemory()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	cols := make([]string, len(header))
	placeholders := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column%d", i+1)
		}
		cols[i] = QuoteIdent(name) + " TEXT"
		placeholders[i] = "?"
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(table), strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", QuoteIdent(table), strings.Join(placeholders, ", "))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		if _, err := db.ExecContext(ctx, insert, args...); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
	}

	return Dump(ctx, db, table)
}

// FromCSVFile is FromCSV on a file path.
func FromCSVFile(ctx context.Context, path, table string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return FromCSV(ctx, f, table)
}

// FromDB dumps one table of the SQLite database file at path.
func FromDB(ctx context.Context, path, table string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	return Dump(ctx, db, table)
}

// Dump returns the CREATE TABLE statement of table, one INSERT per row, then
// the table's index and trigger definitions.
func Dump(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	var create string
	err := db.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&create)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	statements := []string{create}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+QuoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		literals := make([]string, len(values))
		for i, v := range values {
			literals[i] = Literal(v)
		}
		statements = append(statements,
			fmt.Sprintf("INSERT INTO %s VALUES(%s)", QuoteIdent(table), strings.Join(literals, ",")))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	extra, err := db.QueryContext(ctx,
		"SELECT sql FROM sqlite_master WHERE tbl_name = ? AND type IN ('index', 'trigger') AND sql IS NOT NULL ORDER BY type, name", table)
	if err != nil {
		return nil, fmt.Errorf("read indexes: %w", err)
	}
	defer extra.Close()
	for extra.Next() {
		var stmt string
		if err := extra.Scan(&stmt); err != nil {
			return nil, fmt.Errorf("read indexes: %w", err)
		}
		statements = append(statements, stmt)
	}
	return statements, extra.Err()
}

// QuoteIdent quotes an SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Literal renders a scanned SQLite value as an SQL literal.
func Literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return "NULL"
		}
		s := strconv.FormatFloat(t, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case bool:
		if t {
			return "1"
		}
		return "0"
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(t)) + "'"
	case string:
		return quoteString(t)
	case time.Time:
		return quoteString(t.Format("2006-01-02 15:04:05.999999999-07:00"))
	default:
		return quoteString(fmt.Sprint(t))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func openMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	// Every pooled connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)
	return db, nil
}
