package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"schemadiff/internal/catalog"
	"schemadiff/internal/logger"
	"schemadiff/pkg/config"
)

// Extractor reads catalog metadata for one SQL dialect.
type Extractor interface {

	// DefaultSchema is used when the target does not configure one.
	DefaultSchema() string

	// Tables returns the base tables of schema, sorted by name.
	Tables(ctx context.Context, db *sql.DB, schema string) ([]string, error)

	// Columns returns the columns of table ordered by ordinal position.
	// An unknown table yields an empty slice.
	Columns(ctx context.Context, db *sql.DB, schema, table string) ([]catalog.Column, error)

	Indexes(ctx context.Context, db *sql.DB, schema, table string) ([]catalog.Index, error)

	ForeignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]catalog.ForeignKey, error)

	PrimaryKey(ctx context.Context, db *sql.DB, schema, table string) (catalog.PrimaryKey, error)
}

var dialects = map[string]Extractor{}

// Register makes an Extractor available under name.
func Register(name string, e Extractor) {
	dialects[strings.ToLower(name)] = e
}

// listRegistered returns the registered dialect keys (for diagnostics).
func listRegistered() []string {
	keys := make([]string, 0, len(dialects))
	for k := range dialects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisteredDialects is a helper that allows main to print registered dialects
func RegisteredDialects() []string {
	return listRegistered()
}

// ConnectionError reports that a target could not be opened or reached.
type ConnectionError struct {
	Role string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Role, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Conn is an open connection to one target together with the extractor for its dialect.
type Conn struct {
	Role   string
	Label  string
	Driver string
	Schema string

	db        *sql.DB
	extractor Extractor
}

// Connect opens the target described by cfg and pings it within timeoutSec.
// Any failure is returned as a *ConnectionError.
func Connect(ctx context.Context, role string, cfg config.DBConfig, timeoutSec int) (*Conn, error) {
	driver, dsn, err := config.BuildDriverAndDSN(cfg)
	if err != nil {
		return nil, &ConnectionError{Role: role, Err: err}
	}
	extractor, ok := dialects[driver]
	if !ok {
		return nil, &ConnectionError{Role: role,
			Err: fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())}
	}
	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &ConnectionError{Role: role, Err: err}
	}
	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := dbConn.PingContext(pingCtx); err != nil {
		dbConn.Close()
		return nil, &ConnectionError{Role: role, Err: err}
	}
	schema := cfg.Schema
	if schema == "" {
		schema = extractor.DefaultSchema()
	}
	logger.Debug("%s: connected with driver %s, schema %q", role, driver, schema)
	return NewConn(role, cfg.Label, driver, schema, dbConn, extractor), nil
}

// NewConn wraps an already open database handle.
func NewConn(role, label, driver, schema string, dbConn *sql.DB, e Extractor) *Conn {
	if label == "" {
		label = role
	}
	return &Conn{Role: role, Label: label, Driver: driver, Schema: schema, db: dbConn, extractor: e}
}

// Name returns the label used in console output and the script header.
func (c *Conn) Name() string { return c.Label }

// Close releases the underlying database handle.
func (c *Conn) Close() error {
	return c.db.Close()
}

func (c *Conn) Tables(ctx context.Context) ([]string, error) {
	tables, err := c.extractor.Tables(ctx, c.db, c.Schema)
	if err != nil {
		return nil, fmt.Errorf("%s: list tables: %w", c.Role, err)
	}
	sort.Strings(tables)
	return tables, nil
}

func (c *Conn) Columns(ctx context.Context, table string) ([]catalog.Column, error) {
	cols, err := c.extractor.Columns(ctx, c.db, c.Schema, table)
	if err != nil {
		return nil, fmt.Errorf("%s: describe %s: %w", c.Role, table, err)
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })
	return cols, nil
}

func (c *Conn) Indexes(ctx context.Context, table string) ([]catalog.Index, error) {
	idx, err := c.extractor.Indexes(ctx, c.db, c.Schema, table)
	if err != nil {
		return nil, fmt.Errorf("%s: indexes of %s: %w", c.Role, table, err)
	}
	return idx, nil
}

func (c *Conn) ForeignKeys(ctx context.Context, table string) ([]catalog.ForeignKey, error) {
	fks, err := c.extractor.ForeignKeys(ctx, c.db, c.Schema, table)
	if err != nil {
		return nil, fmt.Errorf("%s: foreign keys of %s: %w", c.Role, table, err)
	}
	return fks, nil
}

func (c *Conn) PrimaryKey(ctx context.Context, table string) (catalog.PrimaryKey, error) {
	pk, err := c.extractor.PrimaryKey(ctx, c.db, c.Schema, table)
	if err != nil {
		return catalog.PrimaryKey{}, fmt.Errorf("%s: primary key of %s: %w", c.Role, table, err)
	}
	return pk, nil
}
