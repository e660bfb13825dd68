package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/AI2HU/askdb/internal/db/dbutil"
	"github.com/AI2HU/askdb/internal/models"
)

// MSSQL runs questions against SQL Server using an ODBC style connection string
type MSSQL struct {
	db               *sqlx.DB
	connectionString string
}

// New creates a new SQL Server runner
func New(connectionString string) *MSSQL {
	return &MSSQL{connectionString: connectionString}
}

// DSN returns the connection string in the form go-mssqldb expects.
// ODBC strings are passed through with the odbc: prefix; sqlserver:// URLs
// are used as they are.
func (m *MSSQL) DSN() string {
	cs := strings.TrimSpace(m.connectionString)
	lower := strings.ToLower(cs)
	if strings.HasPrefix(lower, "odbc:") || strings.HasPrefix(lower, "sqlserver://") {
		return cs
	}
	return "odbc:" + stripDriver(cs)
}

// stripDriver drops the Driver= attribute, which names the ODBC driver
// rather than a connection parameter
func stripDriver(cs string) string {
	parts := strings.Split(cs, ";")
	kept := parts[:0]
	for _, p := range parts {
		key, _, _ := strings.Cut(p, "=")
		if strings.EqualFold(strings.TrimSpace(key), "driver") {
			continue
		}
		if strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ";")
}

// Connect establishes connection to SQL Server
func (m *MSSQL) Connect(ctx context.Context) error {
	db, err := sqlx.Open("sqlserver", m.DSN())
	if err != nil {
		return fmt.Errorf("failed to open sql server connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sql server: %w", err)
	}
	m.db = db
	return nil
}

// Disconnect closes the connection
func (m *MSSQL) Disconnect(ctx context.Context) error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (m *MSSQL) Ping(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("not connected to database")
	}
	return m.db.PingContext(ctx)
}

// RunSQL executes a query and returns its rows
func (m *MSSQL) RunSQL(ctx context.Context, query string) (*models.DataFrame, error) {
	return dbutil.Query(ctx, m.db, query)
}

// Dialect returns the SQL dialect name
func (m *MSSQL) Dialect() string {
	return "T-SQL / Microsoft SQL Server"
}

// Schema describes every base table
func (m *MSSQL) Schema(ctx context.Context) ([]string, error) {
	if m.db == nil {
		return nil, fmt.Errorf("not connected to database")
	}

	var columns []dbutil.ColumnInfo
	err := m.db.SelectContext(ctx, &columns, `
		SELECT c.TABLE_SCHEMA AS table_schema, c.TABLE_NAME AS table_name,
			c.COLUMN_NAME AS column_name, c.DATA_TYPE AS data_type,
			c.IS_NULLABLE AS is_nullable, CAST(c.ORDINAL_POSITION AS BIGINT) AS ordinal_position
		FROM INFORMATION_SCHEMA.COLUMNS c
		JOIN INFORMATION_SCHEMA.TABLES t
			ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
		WHERE t.TABLE_TYPE = 'BASE TABLE'`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return dbutil.CreateTableStatements(columns), nil
}
