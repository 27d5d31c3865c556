package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/models"
	"github.com/aman-zulfiqar/coinquery/internal/schema"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

var errEmptyStatement = errors.New("empty statement")

// QueryExecutionError is returned when a canonical statement cannot be run.
// Err carries the engine's own message.
type QueryExecutionError struct {
	SQL string
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// Opener returns a fresh, unshared database handle.
type Opener func() (*sql.DB, error)

// ExecutorConfig holds configuration for the Executor.
type ExecutorConfig struct {
	Registry *schema.Registry
	// DataDir holds the <alias>.db files. Empty means the process working directory.
	DataDir string
	// Open overrides the in-memory SQLite opener; used by tests.
	Open   Opener
	Logger *logrus.Logger
}

// Executor runs one statement per call against every registered coin database.
type Executor struct {
	reg     *schema.Registry
	dataDir string
	open    Opener
	logger  *logrus.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Registry == nil {
		cfg.Registry = schema.Default()
	}
	if cfg.Open == nil {
		cfg.Open = openMemory
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Executor{
		reg:     cfg.Registry,
		dataDir: cfg.DataDir,
		open:    cfg.Open,
		logger:  cfg.Logger,
	}
}

// Execute opens a private connection, attaches every registered database,
// runs statement and tears everything down before returning.
// Failures are *QueryExecutionError and never come with rows.
func (e *Executor) Execute(ctx context.Context, statement string) (*models.ResultSet, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, &QueryExecutionError{SQL: statement, Err: errEmptyStatement}
	}

	start := time.Now()
	rs, err := e.execute(ctx, statement)
	if err != nil {
		e.logger.WithError(err).WithField("sql", statement).Debug("query failed")
		return nil, &QueryExecutionError{SQL: statement, Err: err}
	}

	e.logger.WithFields(logrus.Fields{
		"rows":    len(rs.Rows),
		"columns": len(rs.Columns),
		"took":    time.Since(start),
	}).Debug("query executed")
	return rs, nil
}

func (e *Executor) execute(ctx context.Context, statement string) (*models.ResultSet, error) {
	dir, err := e.resolveDataDir()
	if err != nil {
		return nil, err
	}

	db, err := e.open()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// ATTACH is per connection, so everything runs on one.
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	for _, entry := range e.reg.Entries() {
		path := filepath.Join(dir, schema.DataFile(entry.Alias))
		if _, err := conn.ExecContext(ctx, AttachStatement(path, entry.Alias)); err != nil {
			return nil, fmt.Errorf("attach %s: %w", entry.Alias, err)
		}
	}

	rows, err := conn.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	out := &models.ResultSet{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (e *Executor) resolveDataDir() (string, error) {
	if e.dataDir != "" {
		return filepath.Abs(e.dataDir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return wd, nil
}

// AttachStatement builds the ATTACH statement for one data file.
func AttachStatement(path, alias string) string {
	return fmt.Sprintf("ATTACH DATABASE '%s' AS %s", strings.ReplaceAll(path, "'", "''"), alias)
}

func openMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}
