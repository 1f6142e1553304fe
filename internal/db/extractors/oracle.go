//go:build oracle
// +build oracle

package extractors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/godror/godror"

	"schemadiff/internal/catalog"
	"schemadiff/internal/db"
	"schemadiff/internal/logger"
)

// oracleExtractor implements Extractor for Oracle. An empty schema means the
// connected user; Oracle treats '' as NULL, so NVL picks USER.
type oracleExtractor struct{}

func (oracleExtractor) DefaultSchema() string { return "" }

func (oracleExtractor) Tables(ctx context.Context, dbConn *sql.DB, schema string) ([]string, error) {
	tr, err := dbConn.QueryContext(ctx, `
	    SELECT table_name
	    FROM all_tables
	    WHERE owner = NVL(:1, USER)
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

func (oracleExtractor) Columns(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.Column, error) {
	cr, err := dbConn.QueryContext(ctx, `
        SELECT column_name, data_type, nullable, data_default, column_id
        FROM all_tab_columns
        WHERE owner = NVL(:1, USER) AND table_name = :2
        ORDER BY column_id`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", table, err)
	}
	defer cr.Close()

	var cols []catalog.Column
	for cr.Next() {
		var col catalog.Column
		var nullable string
		if err := cr.Scan(&col.Name, &col.Type, &nullable, &col.Default, &col.Position); err != nil {
			return nil, fmt.Errorf("scan column for %s: %w", table, err)
		}
		col.Nullable = (nullable == "Y")
		cols = append(cols, col)
	}
	return cols, cr.Err()
}

func (oracleExtractor) Indexes(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.Index, error) {
	ir, err := dbConn.QueryContext(ctx, `
        SELECT i.index_name, CASE WHEN i.uniqueness = 'UNIQUE' THEN 1 ELSE 0 END, c.column_name
        FROM all_indexes i
        JOIN all_ind_columns c
          ON c.index_owner = i.owner AND c.index_name = i.index_name
        WHERE i.table_owner = NVL(:1, USER) AND i.table_name = :2
          AND NOT EXISTS (
            SELECT 1 FROM all_constraints k
            WHERE k.owner = i.owner AND k.index_name = i.index_name AND k.constraint_type = 'P')
        ORDER BY i.index_name, c.column_position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes for %s: %w", table, err)
	}
	defer ir.Close()

	var rows []indexRow
	for ir.Next() {
		var r indexRow
		var unique int
		if err := ir.Scan(&r.name, &unique, &r.column); err != nil {
			logger.Error("scan index: %v", err)
			continue
		}
		r.unique = unique == 1
		rows = append(rows, r)
	}
	if err := ir.Err(); err != nil {
		return nil, err
	}
	return groupIndexes(table, rows), nil
}

func (oracleExtractor) ForeignKeys(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.ForeignKey, error) {
	fkr, err := dbConn.QueryContext(ctx, `
        SELECT a.constraint_name, acc.column_name, rcc.table_name, rcc.column_name, a.delete_rule
        FROM all_constraints a
        JOIN all_cons_columns acc
          ON a.owner = acc.owner
         AND a.constraint_name = acc.constraint_name
        JOIN all_cons_columns rcc
          ON a.r_owner = rcc.owner
         AND a.r_constraint_name = rcc.constraint_name
         AND nvl(acc.position, 0) = nvl(rcc.position, 0)
        WHERE a.constraint_type = 'R'
          AND a.owner = NVL(:1, USER) AND a.table_name = :2
        ORDER BY a.constraint_name, acc.position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s: %w", table, err)
	}
	defer fkr.Close()

	var rows []fkRow
	for fkr.Next() {
		var r fkRow
		if err := fkr.Scan(&r.name, &r.column, &r.refTable, &r.refColumn, &r.onDelete); err != nil {
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

func (oracleExtractor) PrimaryKey(ctx context.Context, dbConn *sql.DB, schema, table string) (catalog.PrimaryKey, error) {
	var pk catalog.PrimaryKey
	pkr, err := dbConn.QueryContext(ctx, `
        SELECT ac.constraint_name, acc.column_name
        FROM all_cons_columns acc
        JOIN all_constraints ac ON acc.owner = ac.owner AND acc.constraint_name = ac.constraint_name
        WHERE ac.constraint_type = 'P' AND acc.owner = NVL(:1, USER) AND acc.table_name = :2
        ORDER BY acc.position`, schema, table)
	if err != nil {
		return pk, fmt.Errorf("query primary key for %s: %w", table, err)
	}
	defer pkr.Close()

	for pkr.Next() {
		var col string
		if err := pkr.Scan(&pk.Name, &col); err != nil {
			return catalog.PrimaryKey{}, fmt.Errorf("scan primary key for %s: %w", table, err)
		}
		pk.Columns = append(pk.Columns, col)
	}
	return pk, pkr.Err()
}

func init() {
	db.Register("godror", oracleExtractor{})
	db.Register("oracle", oracleExtractor{})
}
