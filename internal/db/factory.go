package db

import (
	"fmt"

	"github.com/AI2HU/askdb/internal/config"
	"github.com/AI2HU/askdb/internal/db/mssql"
	"github.com/AI2HU/askdb/internal/db/snowflake"
	"github.com/AI2HU/askdb/internal/db/sqlite"
)

// New creates the Runner for the configured database type. The runner still
// needs Connect before use.
func New(cfg config.DatabaseConfig) (Runner, error) {
	switch cfg.Type {
	case config.DatabaseSQLite:
		return sqlite.New(cfg.URL), nil
	case config.DatabaseSnowflake:
		return snowflake.New(snowflake.Config{
			Account:   cfg.Snowflake.Account,
			Username:  cfg.Snowflake.Username,
			Password:  cfg.Snowflake.Password,
			Database:  cfg.Snowflake.Database,
			Warehouse: cfg.Snowflake.Warehouse,
		}), nil
	case config.DatabaseMSSQL, config.DatabaseODBC:
		return mssql.New(cfg.ODBCConnectionString), nil
	default:
		return nil, fmt.Errorf("%w: [%s]", ErrUnsupportedType, cfg.Type)
	}
}
