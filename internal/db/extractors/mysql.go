package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"schemadiff/internal/catalog"
	"schemadiff/internal/db"
	"schemadiff/internal/logger"
)

// myExtractor implements Extractor for MySQL (information_schema).
// An empty schema means the connection's current database.
type myExtractor struct{}

func (myExtractor) DefaultSchema() string { return "" }

func (myExtractor) Tables(ctx context.Context, dbConn *sql.DB, schema string) ([]string, error) {
	tr, err := dbConn.QueryContext(ctx, `
        SELECT table_name
        FROM information_schema.tables
        WHERE table_type = 'BASE TABLE'
          AND table_schema = COALESCE(NULLIF(?, ''), DATABASE())
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

func (myExtractor) Columns(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.Column, error) {
	cr, err := dbConn.QueryContext(ctx, `
        SELECT column_name, data_type, is_nullable = 'YES', column_default, ordinal_position
        FROM information_schema.columns
        WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ?
        ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", table, err)
	}
	defer cr.Close()

	var cols []catalog.Column
	for cr.Next() {
		var col catalog.Column
		if err := cr.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default, &col.Position); err != nil {
			return nil, fmt.Errorf("scan column for %s: %w", table, err)
		}
		cols = append(cols, col)
	}
	return cols, cr.Err()
}

func (myExtractor) Indexes(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.Index, error) {
	ir, err := dbConn.QueryContext(ctx, `
        SELECT index_name, non_unique = 0, column_name
        FROM information_schema.statistics
        WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ?
          AND index_name <> 'PRIMARY'
          AND column_name IS NOT NULL
        ORDER BY index_name, seq_in_index`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes for %s: %w", table, err)
	}
	defer ir.Close()

	var rows []indexRow
	for ir.Next() {
		var r indexRow
		if err := ir.Scan(&r.name, &r.unique, &r.column); err != nil {
			logger.Error("scan index: %v", err)
			continue
		}
		rows = append(rows, r)
	}
	if err := ir.Err(); err != nil {
		return nil, err
	}
	return groupIndexes(table, rows), nil
}

func (myExtractor) ForeignKeys(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.ForeignKey, error) {
	fkr, err := dbConn.QueryContext(ctx, `
        SELECT k.constraint_name, k.column_name, k.referenced_table_name, k.referenced_column_name,
               r.delete_rule, r.update_rule
        FROM information_schema.key_column_usage k
        JOIN information_schema.referential_constraints r
          ON r.constraint_schema = k.constraint_schema
         AND r.constraint_name = k.constraint_name
        WHERE k.table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND k.table_name = ?
          AND k.referenced_table_name IS NOT NULL
        ORDER BY k.constraint_name, k.ordinal_position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s: %w", table, err)
	}
	defer fkr.Close()

	var rows []fkRow
	for fkr.Next() {
		var r fkRow
		if err := fkr.Scan(&r.name, &r.column, &r.refTable, &r.refColumn, &r.onDelete, &r.onUpdate); err != nil {
			logger.Error("scan foreign key: %v", err)
			continue
		}
		rows = append(rows, r)
	}
	if err := fkr.Err(); err != nil {
		return nil, err
	}
	return groupForeignKeys(rows), nil
}

func (myExtractor) PrimaryKey(ctx context.Context, dbConn *sql.DB, schema, table string) (catalog.PrimaryKey, error) {
	var pk catalog.PrimaryKey
	pkr, err := dbConn.QueryContext(ctx, `
        SELECT k.column_name
        FROM information_schema.key_column_usage k
        JOIN information_schema.table_constraints tc
          ON k.constraint_name = tc.constraint_name
         AND k.table_schema = tc.table_schema
         AND k.table_name = tc.table_name
        WHERE tc.constraint_type = 'PRIMARY KEY'
          AND k.table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND k.table_name = ?
        ORDER BY k.ordinal_position`, schema, table)
	if err != nil {
		return pk, fmt.Errorf("query primary key for %s: %w", table, err)
	}
	defer pkr.Close()

	// MySQL names every primary key PRIMARY; leave Name empty so the
	// rendered constraint gets a per-table name.
	for pkr.Next() {
		var col string
		if err := pkr.Scan(&col); err != nil {
			return catalog.PrimaryKey{}, fmt.Errorf("scan primary key for %s: %w", table, err)
		}
		pk.Columns = append(pk.Columns, col)
	}
	return pk, pkr.Err()
}

func init() {
	db.Register("mysql", myExtractor{})
	db.Register("mariadb", myExtractor{})
}
