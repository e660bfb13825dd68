package db

import (
	"context"
	"errors"

	"github.com/AI2HU/askdb/internal/models"
)

// ErrUnsupportedType is returned by New for an unknown database type
var ErrUnsupportedType = errors.New("unsupported database type")

// Runner executes SQL against the database questions are asked about
type Runner interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	// RunSQL executes a statement and returns its rows
	RunSQL(ctx context.Context, query string) (*models.DataFrame, error)

	// Dialect names the SQL flavor for prompts, e.g. "SQLite"
	Dialect() string

	// Schema returns CREATE TABLE statements describing the database
	Schema(ctx context.Context) ([]string, error)
}
