package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"schemadiff/internal/catalog"
	"schemadiff/internal/db"
	"schemadiff/internal/logger"
)

// mssqlExtractor implements Extractor for Microsoft SQL Server.
type mssqlExtractor struct{}

func (mssqlExtractor) DefaultSchema() string { return "dbo" }

func (mssqlExtractor) Tables(ctx context.Context, dbConn *sql.DB, schema string) ([]string, error) {
	tr, err := dbConn.QueryContext(ctx, `
        SELECT TABLE_NAME
        FROM INFORMATION_SCHEMA.TABLES
        WHERE TABLE_SCHEMA = @schema AND TABLE_TYPE = 'BASE TABLE'
        ORDER BY TABLE_NAME`, sql.Named("schema", schema))
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

func (mssqlExtractor) Columns(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.Column, error) {
	cr, err := dbConn.QueryContext(ctx, `
        SELECT COLUMN_NAME, DATA_TYPE, CASE WHEN IS_NULLABLE = 'YES' THEN 1 ELSE 0 END,
               COLUMN_DEFAULT, ORDINAL_POSITION
        FROM INFORMATION_SCHEMA.COLUMNS
        WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
        ORDER BY ORDINAL_POSITION`, sql.Named("schema", schema), sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("query columns for %s.%s: %w", schema, table, err)
	}
	defer cr.Close()

	var cols []catalog.Column
	for cr.Next() {
		var col catalog.Column
		var nullableInt int
		if err := cr.Scan(&col.Name, &col.Type, &nullableInt, &col.Default, &col.Position); err != nil {
			return nil, fmt.Errorf("scan column for %s.%s: %w", schema, table, err)
		}
		col.Nullable = nullableInt == 1
		cols = append(cols, col)
	}
	return cols, cr.Err()
}

func (mssqlExtractor) Indexes(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.Index, error) {
	ir, err := dbConn.QueryContext(ctx, `
        SELECT i.name, CAST(i.is_unique AS int), c.name
        FROM sys.indexes i
        JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
        JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
        JOIN sys.tables t ON t.object_id = i.object_id
        JOIN sys.schemas s ON s.schema_id = t.schema_id
        WHERE s.name = @schema AND t.name = @table
          AND i.is_primary_key = 0 AND i.type > 0 AND ic.is_included_column = 0
        ORDER BY i.name, ic.key_ordinal`, sql.Named("schema", schema), sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("query indexes for %s.%s: %w", schema, table, err)
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

func (mssqlExtractor) ForeignKeys(ctx context.Context, dbConn *sql.DB, schema, table string) ([]catalog.ForeignKey, error) {
	fkr, err := dbConn.QueryContext(ctx, `
        SELECT fk.name, c.name, OBJECT_NAME(fkc.referenced_object_id), rc.name,
               fk.delete_referential_action_desc, fk.update_referential_action_desc
        FROM sys.foreign_keys fk
        JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
        JOIN sys.columns c ON fkc.parent_object_id = c.object_id AND fkc.parent_column_id = c.column_id
        JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
        WHERE OBJECT_SCHEMA_NAME(fkc.parent_object_id) = @schema
          AND OBJECT_NAME(fkc.parent_object_id) = @table
        ORDER BY fk.name, fkc.constraint_column_id`, sql.Named("schema", schema), sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s.%s: %w", schema, table, err)
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

func (mssqlExtractor) PrimaryKey(ctx context.Context, dbConn *sql.DB, schema, table string) (catalog.PrimaryKey, error) {
	var pk catalog.PrimaryKey
	pkr, err := dbConn.QueryContext(ctx, `
        SELECT t.CONSTRAINT_NAME, k.COLUMN_NAME
        FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS t
        JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
          ON t.CONSTRAINT_NAME = k.CONSTRAINT_NAME AND t.TABLE_SCHEMA = k.TABLE_SCHEMA
        WHERE t.CONSTRAINT_TYPE = 'PRIMARY KEY' AND k.TABLE_SCHEMA = @schema AND k.TABLE_NAME = @table
        ORDER BY k.ORDINAL_POSITION`, sql.Named("schema", schema), sql.Named("table", table))
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
	db.Register("sqlserver", mssqlExtractor{})
	db.Register("mssql", mssqlExtractor{})
}
