package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"schemadiff/internal/catalog"
	"schemadiff/internal/db"
	"schemadiff/internal/logger"
)

// pgExtractor implements Extractor using information_schema + pg_catalog queries.
type pgExtractor struct{}

func (pgExtractor) DefaultSchema() string { return "public" }

func (pgExtractor) Tables(ctx context.Context, dbConn *sql.DB, schema string) ([]string, error) {
	tr, err := dbConn.QueryContext(ctx, `
        SELECT table_name
        FROM information_schema.tables
        WHERE table_schema = $1
          AND table_type = 'BASE TABLE'
        ORDER BY table_name`, schema)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer tr.Close()

	var tables []string
	for tr.Next() {
		var name string
		if err := tr.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, tr.Err()
}

func (pgExtractor) Columns(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.Column, error) {
	cr, err := dbConn.QueryContext(ctx, `
        SELECT column_name, data_type, is_nullable = 'YES', column_default, ordinal_position
        FROM information_schema.columns
        WHERE table_schema = $1 AND table_name = $2
        ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s.%s: %w", schema, table, err)
	}
	defer cr.Close()

	var cols []catalog.Column
	for cr.Next() {
		var col catalog.Column
		if err := cr.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default, &col.Position); err != nil {
			return nil, fmt.Errorf("scan column for %s.%s: %w", schema, table, err)
		}
		cols = append(cols, col)
	}
	return cols, cr.Err()
}

func (pgExtractor) Indexes(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.Index, error) {
	ir, err := dbConn.QueryContext(ctx, `
        SELECT indexname, indexdef
        FROM pg_indexes
        WHERE schemaname = $1 AND tablename = $2`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes for %s.%s: %w", schema, table, err)
	}
	defer ir.Close()

	var idx []catalog.Index
	for ir.Next() {
		var ix catalog.Index
		if err := ir.Scan(&ix.Name, &ix.Definition); err != nil {
			logger.Error("scan index: %v", err)
			continue
		}
		idx = append(idx, ix)
	}
	return idx, ir.Err()
}

func (pgExtractor) ForeignKeys(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.ForeignKey, error) {
	fkr, err := dbConn.QueryContext(ctx, `
        SELECT conname, pg_get_constraintdef(oid)
        FROM pg_constraint
        WHERE conrelid = (quote_ident($1) || '.' || quote_ident($2))::regclass
          AND contype = 'f'
        ORDER BY conname`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s.%s: %w", schema, table, err)
	}
	defer fkr.Close()

	var fks []catalog.ForeignKey
	for fkr.Next() {
		var fk catalog.ForeignKey
		if err := fkr.Scan(&fk.Name, &fk.Definition); err != nil {
			logger.Error("scan foreign key: %v", err)
			continue
		}
		fks = append(fks, fk)
	}
	return fks, fkr.Err()
}

func (pgExtractor) PrimaryKey(ctx context.Context, dbConn *sql.DB, schema, table string) (catalog.PrimaryKey, error) {
	var pk catalog.PrimaryKey
	pkr, err := dbConn.QueryContext(ctx, `
        SELECT c.conname, a.attname
        FROM pg_constraint c
        JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = ANY(c.conkey)
        WHERE c.conrelid = (quote_ident($1) || '.' || quote_ident($2))::regclass
          AND c.contype = 'p'
        ORDER BY array_position(c.conkey, a.attnum)`, schema, table)
	if err != nil {
		return pk, fmt.Errorf("query primary key for %s.%s: %w", schema, table, err)
	}
	defer pkr.Close()

	for pkr.Next() {
		var col string
		if err := pkr.Scan(&pk.Name, &col); err != nil {
			return catalog.PrimaryKey{}, fmt.Errorf("scan primary key for %s.%s: %w", schema, table, err)
		}
		pk.Columns = append(pk.Columns, col)
	}
	return pk, pkr.Err()
}

func init() {
	db.Register("postgres", pgExtractor{})
	db.Register("postgresql", pgExtractor{})
	db.Register("pgx", pgExtractor{})
}
