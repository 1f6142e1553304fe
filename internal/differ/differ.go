// Package differ compares a source and a destination catalog and produces
// the SQL that adds the destination's missing tables and columns.
//
// A run is strictly linear: list tables on both sides, render CREATE TABLE
// statements for tables only the source has, diff the columns of the shared
// tables, render ADD COLUMN statements, then write the whole script once.
package differ

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"schemadiff/internal/catalog"
	"schemadiff/internal/diff"
	"schemadiff/internal/logger"
	"schemadiff/internal/render"
)

// Catalog is the read side of one target. *db.Conn implements it.
type Catalog interface {
	Name() string
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]catalog.Column, error)
	Indexes(ctx context.Context, table string) ([]catalog.Index, error)
	ForeignKeys(ctx context.Context, table string) ([]catalog.ForeignKey, error)
	PrimaryKey(ctx context.Context, table string) (catalog.PrimaryKey, error)
}

type Options struct {
	// OutputPath is replaced atomically with the generated script.
	OutputPath string
	// DestinationSchema is named in the verification query.
	DestinationSchema string
	// DestinationDialect is the destination's normalized driver name; it picks
	// the verification query. Empty means PostgreSQL.
	DestinationDialect string
	// InferPrimaryKeys uses the "id" column heuristic instead of the
	// source's primary-key constraints.
	InferPrimaryKeys bool
	// IgnoreTables are removed from both sides before diffing.
	IgnoreTables []string
	// DryRun prints the script to Stdout instead of writing OutputPath.
	DryRun bool
	Stdout io.Writer
}

// Result describes one run.
type Result struct {
	SourceTables      []string
	DestinationTables []string
	MissingTables     []string
	ExtraTables       []string
	Skipped           []string
	MissingColumns    map[string][]string
	Script            render.Script
	Written           bool
}

// Statements returns the number of generated SQL statements.
func (r *Result) Statements() int {
	return len(r.Script.TableStatements) + len(r.Script.ColumnStatements)
}

type Differ struct {
	source      Catalog
	destination Catalog
	opts        Options
}

func New(source, destination Catalog, opts Options) *Differ {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Differ{source: source, destination: destination, opts: opts}
}

// Run generates the script and writes it. When nothing is missing the output
// file is left untouched.
func (d *Differ) Run(ctx context.Context) (*Result, error) {
	res, err := d.Generate(ctx)
	if err != nil {
		return nil, err
	}

	if res.Script.Empty() {
		logger.Info("nothing to migrate; %s left untouched", d.opts.OutputPath)
		return res, nil
	}

	text := res.Script.String()
	if d.opts.DryRun {
		if _, err := io.WriteString(d.opts.Stdout, text); err != nil {
			return nil, fmt.Errorf("print script: %w", err)
		}
		return res, nil
	}

	if err := writeFileAtomic(d.opts.OutputPath, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", d.opts.OutputPath, err)
	}
	res.Written = true
	logger.Info("SQL script written: %s (%d statements)", d.opts.OutputPath, res.Statements())
	logger.Info("next steps: review %s, then run it against %s", d.opts.OutputPath, d.destination.Name())
	return res, nil
}

// Generate builds the script in memory without touching the output file.
func (d *Differ) Generate(ctx context.Context) (*Result, error) {
	res := &Result{
		MissingColumns: map[string][]string{},
		Script: render.Script{
			Source:             d.source.Name(),
			Destination:        d.destination.Name(),
			DestinationSchema:  d.opts.DestinationSchema,
			DestinationDialect: d.opts.DestinationDialect,
		},
	}

	switch d.opts.DestinationDialect {
	case "", "postgres", "pgx":
	default:
		logger.Warn("generated statements use PostgreSQL syntax; %s is a %s database", d.destination.Name(), d.opts.DestinationDialect)
	}

	logger.Info("loading table lists")
	src, err := d.source.Tables(ctx)
	if err != nil {
		return nil, err
	}
	dst, err := d.destination.Tables(ctx)
	if err != nil {
		return nil, err
	}
	res.SourceTables = diff.Without(src, d.opts.IgnoreTables)
	res.DestinationTables = diff.Without(dst, d.opts.IgnoreTables)
	res.MissingTables = diff.MissingTables(res.SourceTables, res.DestinationTables)
	res.ExtraTables = diff.ExtraTables(res.SourceTables, res.DestinationTables)
	res.Script.MissingTables = len(res.MissingTables)

	logger.Info("%s tables: %d", d.source.Name(), len(res.SourceTables))
	logger.Info("%s tables: %d", d.destination.Name(), len(res.DestinationTables))
	logger.Info("missing tables: %d", len(res.MissingTables))
	if len(res.ExtraTables) > 0 {
		logger.Info("tables only in %s (left alone): %s", d.destination.Name(), strings.Join(res.ExtraTables, ", "))
	}

	if len(res.MissingTables) == 0 {
		logger.Info("no missing tables: every %s table exists in %s", d.source.Name(), d.destination.Name())
	} else {
		logger.Info("missing in %s: %s", d.destination.Name(), strings.Join(res.MissingTables, ", "))
		for _, table := range res.MissingTables {
			stmts, err := d.tableStatements(ctx, table)
			if err != nil {
				return nil, err
			}
			if stmts == nil {
				logger.Warn("%s: no columns found, skipping", table)
				res.Skipped = append(res.Skipped, table)
				continue
			}
			res.Script.TableStatements = append(res.Script.TableStatements, stmts...)
		}
	}

	logger.Info("checking for missing columns in existing tables")
	for _, table := range diff.CommonTables(res.SourceTables, res.DestinationTables) {
		srcCols, err := d.source.Columns(ctx, table)
		if err != nil {
			return nil, err
		}
		dstCols, err := d.destination.Columns(ctx, table)
		if err != nil {
			return nil, err
		}
		if missing := diff.MissingColumns(catalog.ColumnNames(srcCols), catalog.ColumnNames(dstCols)); len(missing) > 0 {
			res.MissingColumns[table] = missing
		}
	}

	if len(res.MissingColumns) == 0 {
		logger.Info("no missing columns: all shared tables match")
		return res, nil
	}

	logger.Warn("missing columns found:")
	for _, table := range diff.CommonTables(res.SourceTables, res.DestinationTables) {
		missing, ok := res.MissingColumns[table]
		if !ok {
			continue
		}
		logger.Warn("  %s: %s", table, strings.Join(missing, ", "))
		stmts, err := d.columnStatements(ctx, table, missing)
		if err != nil {
			return nil, err
		}
		res.Script.ColumnStatements = append(res.Script.ColumnStatements, stmts...)
	}
	logger.Info("ALTER TABLE statements generated: %d", len(res.Script.ColumnStatements))
	return res, nil
}

// tableStatements renders CREATE TABLE plus index and foreign-key statements
// for one missing table. It returns nil when the source reports no columns.
func (d *Differ) tableStatements(ctx context.Context, table string) ([]string, error) {
	logger.Debug("analysing table %s", table)
	cols, err := d.source.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}

	pk, err := d.primaryKey(ctx, table, cols)
	if err != nil {
		return nil, err
	}
	stmts := []string{render.CreateTable(table, cols, pk)}

	indexes, err := d.source.Indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	// only a catalog key is the constraint behind the source's key index
	skip := ""
	switch {
	case pk.IsZero():
	case d.opts.InferPrimaryKeys:
		name := render.PrimaryKeyName(table, pk)
		for _, ix := range indexes {
			if ix.Name == name {
				logger.Warn("%s: index %s is kept next to the inferred key of the same name; review before applying", table, name)
			}
		}
	default:
		skip = render.PrimaryKeyName(table, pk)
	}
	stmts = append(stmts, render.IndexStatements(indexes, skip)...)

	fks, err := d.source.ForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	for _, fk := range fks {
		stmts = append(stmts, render.AddForeignKey(table, fk))
	}
	return stmts, nil
}

func (d *Differ) primaryKey(ctx context.Context, table string, cols []catalog.Column) (catalog.PrimaryKey, error) {
	if d.opts.InferPrimaryKeys {
		return render.InferPrimaryKey(table, cols), nil
	}
	return d.source.PrimaryKey(ctx, table)
}

// columnStatements re-reads the source descriptors so the ADD COLUMN
// statements follow source ordinal order.
func (d *Differ) columnStatements(ctx context.Context, table string, missing []string) ([]string, error) {
	cols, err := d.source.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(missing))
	for _, m := range missing {
		want[m] = true
	}
	var stmts []string
	for _, c := range cols {
		if want[c.Name] {
			stmts = append(stmts, render.AddColumn(table, c))
		}
	}
	return stmts, nil
}
