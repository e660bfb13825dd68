package snowflake

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/snowflakedb/gosnowflake"

	"github.com/AI2HU/askdb/internal/db/dbutil"
	"github.com/AI2HU/askdb/internal/models"
)

// Config holds the account credentials used to build the DSN
type Config struct {
	Account   string
	Username  string
	Password  string
	Database  string
	Warehouse string
}

// Snowflake runs questions against a Snowflake warehouse
type Snowflake struct {
	db     *sqlx.DB
	config Config
}

// New creates a new Snowflake runner
func New(config Config) *Snowflake {
	return &Snowflake{config: config}
}

// DSN builds the gosnowflake connection string
func (s *Snowflake) DSN() (string, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   s.config.Account,
		User:      s.config.Username,
		Password:  s.config.Password,
		Database:  s.config.Database,
		Warehouse: s.config.Warehouse,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build snowflake dsn: %w", err)
	}
	return dsn, nil
}

// Connect establishes connection to Snowflake
func (s *Snowflake) Connect(ctx context.Context) error {
	dsn, err := s.DSN()
	if err != nil {
		return err
	}

	db, err := sqlx.Open("snowflake", dsn)
	if err != nil {
		return fmt.Errorf("failed to open snowflake connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping snowflake account '%s': %w", s.config.Account, err)
	}

	s.db = db
	return nil
}

// Disconnect closes the connection
func (s *Snowflake) Disconnect(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (s *Snowflake) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("not connected to database")
	}
	return s.db.PingContext(ctx)
}

// RunSQL executes a query and returns its rows
func (s *Snowflake) RunSQL(ctx context.Context, query string) (*models.DataFrame, error) {
	return dbutil.Query(ctx, s.db, query)
}

// Dialect returns the SQL dialect name
func (s *Snowflake) Dialect() string {
	return "Snowflake"
}

// Schema describes every table of the configured database
func (s *Snowflake) Schema(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("not connected to database")
	}

	var columns []dbutil.ColumnInfo
	err := s.db.SelectContext(ctx, &columns, `
		SELECT table_schema AS "table_schema", table_name AS "table_name",
			column_name AS "column_name", data_type AS "data_type",
			is_nullable AS "is_nullable", ordinal_position AS "ordinal_position"
		FROM information_schema.columns
		WHERE table_schema <> 'INFORMATION_SCHEMA'`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return dbutil.CreateTableStatements(columns), nil
}
