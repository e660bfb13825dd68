package sqlite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/AI2HU/askdb/internal/db/dbutil"
	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/models"
)

// SQLite runs questions against a SQLite database file
type SQLite struct {
	db         *sqlx.DB
	url        string
	downloadTo string
	httpClient *http.Client
}

// Option customizes a SQLite runner
type Option func(*SQLite)

// WithDownloadDir sets where remote database files are stored
func WithDownloadDir(dir string) Option {
	return func(s *SQLite) {
		s.downloadTo = dir
	}
}

// WithHTTPClient sets the client used to download remote database files
func WithHTTPClient(client *http.Client) Option {
	return func(s *SQLite) {
		s.httpClient = client
	}
}

// New creates a new SQLite runner for a local path or an http(s) URL
func New(databaseURL string, opts ...Option) *SQLite {
	s := &SQLite{
		url:        databaseURL,
		downloadTo: ".",
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect establishes connection to SQLite
func (s *SQLite) Connect(ctx context.Context) error {
	dbPath, err := s.resolvePath(ctx)
	if err != nil {
		return err
	}

	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database at path '%s': %w", dbPath, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping SQLite database at path '%s': %w", dbPath, err)
	}

	s.db = db
	return nil
}

// resolvePath expands ~ and relative paths and downloads remote files once
func (s *SQLite) resolvePath(ctx context.Context) (string, error) {
	if strings.HasPrefix(s.url, "http://") || strings.HasPrefix(s.url, "https://") {
		return s.download(ctx)
	}

	dbPath := s.url
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	} else if dbPath != ":memory:" && !filepath.IsAbs(dbPath) {
		absPath, err := filepath.Abs(dbPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		dbPath = absPath
	}
	return dbPath, nil
}

func (s *SQLite) download(ctx context.Context) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("database url %q has no file name", s.url)
	}

	if err := os.MkdirAll(s.downloadTo, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	target := filepath.Join(s.downloadTo, name)
	if _, err := os.Stat(target); err == nil {
		logger.Debug("Using previously downloaded database %s", target)
		return target, nil
	}

	logger.Info("Downloading SQLite database from %s", s.url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download database: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download database: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(s.downloadTo, name+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create database file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write database file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write database file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move database file: %w", err)
	}

	return target, nil
}

// Disconnect closes the SQLite connection
func (s *SQLite) Disconnect(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (s *SQLite) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("not connected to database")
	}
	return s.db.PingContext(ctx)
}

// RunSQL executes a query and returns its rows
func (s *SQLite) RunSQL(ctx context.Context, query string) (*models.DataFrame, error) {
	return dbutil.Query(ctx, s.db, query)
}

// Dialect returns the SQL dialect name
func (s *SQLite) Dialect() string {
	return "SQLite"
}

// Schema returns the CREATE statements of every user table
func (s *SQLite) Schema(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("not connected to database")
	}

	var statements []string
	err := s.db.SelectContext(ctx, &statements, `
		SELECT sql FROM sqlite_master
		WHERE type = 'table' AND sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return statements, nil
}

// DB exposes the underlying connection
func (s *SQLite) DB() *sqlx.DB {
	return s.db
}
