// Package dbutil holds helpers shared by the SQL runners.
package dbutil

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/AI2HU/askdb/internal/models"
)

// Query runs a statement and scans every row into a DataFrame
func Query(ctx context.Context, db *sqlx.DB, query string) (*models.DataFrame, error) {
	if db == nil {
		return nil, fmt.Errorf("not connected to database")
	}

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	return ScanFrame(rows)
}

// ScanFrame reads all rows into a DataFrame, normalizing driver values
func ScanFrame(rows *sqlx.Rows) (*models.DataFrame, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	df := models.NewDataFrame(columns...)
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			values[i] = models.NormalizeValue(v)
		}
		df.Rows = append(df.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return df, nil
}

// ColumnInfo is one row of INFORMATION_SCHEMA.COLUMNS
type ColumnInfo struct {
	Schema   string `db:"table_schema"`
	Table    string `db:"table_name"`
	Column   string `db:"column_name"`
	DataType string `db:"data_type"`
	Nullable string `db:"is_nullable"`
	Position int64  `db:"ordinal_position"`
}

// CreateTableStatements renders information schema columns as CREATE TABLE
// statements, one per table, sorted by qualified table name
func CreateTableStatements(columns []ColumnInfo) []string {
	tables := make(map[string][]ColumnInfo)
	for _, c := range columns {
		name := c.Table
		if c.Schema != "" {
			name = c.Schema + "." + c.Table
		}
		tables[name] = append(tables[name], c)
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	statements := make([]string, 0, len(names))
	for _, name := range names {
		cols := tables[name]
		sort.Slice(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })

		var b strings.Builder
		fmt.Fprintf(&b, "CREATE TABLE %s (\n", name)
		for i, c := range cols {
			fmt.Fprintf(&b, "  %s %s", c.Column, strings.ToUpper(c.DataType))
			if strings.EqualFold(c.Nullable, "NO") {
				b.WriteString(" NOT NULL")
			}
			if i < len(cols)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(");")
		statements = append(statements, b.String())
	}
	return statements
}
