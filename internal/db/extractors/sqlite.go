package extractors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schemadiff/internal/catalog"
	"schemadiff/internal/db"
	"schemadiff/internal/logger"
)

// sqliteExtractor implements Extractor for SQLite. SQLite has no schemas
// beyond attached databases, so the schema argument is ignored.
type sqliteExtractor struct{}

func (sqliteExtractor) DefaultSchema() string { return "main" }

func (sqliteExtractor) Tables(ctx context.Context, dbConn *sql.DB, _ string) ([]string, error) {
	tr, err := dbConn.QueryContext(ctx, `
	    SELECT name
	    FROM sqlite_master
	    WHERE type = 'table'
	      AND name NOT LIKE 'sqlite_%'
	    ORDER BY name`)
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

type sqliteColumn struct {
	catalog.Column
	pk int
}

func (sqliteExtractor) tableInfo(ctx context.Context, dbConn *sql.DB, table string) ([]sqliteColumn, error) {
	pr, err := dbConn.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", table, err)
	}
	defer pr.Close()

	var cols []sqliteColumn
	for pr.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt sql.NullString
		if err := pr.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column for %s: %w", table, err)
		}
		cols = append(cols, sqliteColumn{
			Column: catalog.Column{
				Name:     name,
				Type:     strings.ToLower(ctype),
				Nullable: notnull == 0,
				Default:  dflt,
				Position: cid + 1,
			},
			pk: pk,
		})
	}
	return cols, pr.Err()
}

func (e sqliteExtractor) Columns(ctx context.Context, dbConn *sql.DB, _ string, table string) ([]catalog.Column, error) {
	info, err := e.tableInfo(ctx, dbConn, table)
	if err != nil {
		return nil, err
	}
	cols := make([]catalog.Column, 0, len(info))
	for _, c := range info {
		cols = append(cols, c.Column)
	}
	return cols, nil
}

func (sqliteExtractor) Indexes(ctx context.Context, dbConn *sql.DB, _ string, table string) ([]catalog.Index, error) {
	// automatic indexes (UNIQUE/PRIMARY KEY constraints) have no sql text
	ir, err := dbConn.QueryContext(ctx, `
	    SELECT name, sql
	    FROM sqlite_master
	    WHERE type = 'index' AND tbl_name = ? AND sql IS NOT NULL
	    ORDER BY name`, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes for %s: %w", table, err)
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

func (sqliteExtractor) ForeignKeys(ctx context.Context, dbConn *sql.DB, _ string, table string) ([]catalog.ForeignKey, error) {
	fkr, err := dbConn.QueryContext(ctx, `
	    SELECT id, "table", "from", "to", on_update, on_delete
	    FROM pragma_foreign_key_list(?)
	    ORDER BY id, seq`, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s: %w", table, err)
	}
	defer fkr.Close()

	// SQLite does not keep constraint names; use the PostgreSQL default naming,
	// suffixed with the pragma id when two keys share columns.
	var ids []int
	byID := map[int][]fkRow{}
	for fkr.Next() {
		var id int
		var ref, from string
		var to, onUpdate, onDelete sql.NullString
		if err := fkr.Scan(&id, &ref, &from, &to, &onUpdate, &onDelete); err != nil {
			logger.Error("scan foreign key: %v", err)
			continue
		}
		if _, seen := byID[id]; !seen {
			ids = append(ids, id)
		}
		byID[id] = append(byID[id], fkRow{column: from, refTable: ref, refColumn: to.String, onDelete: onDelete.String, onUpdate: onUpdate.String})
	}
	if err := fkr.Err(); err != nil {
		return nil, err
	}

	var rows []fkRow
	used := map[string]bool{}
	for _, id := range ids {
		key := byID[id]
		cols := make([]string, len(key))
		for i, r := range key {
			cols[i] = r.column
		}
		name := fmt.Sprintf("%s_%s_fkey", table, strings.Join(cols, "_"))
		if used[name] {
			name = fmt.Sprintf("%s%d", name, id)
		}
		used[name] = true
		for _, r := range key {
			r.name = name
			rows = append(rows, r)
		}
	}
	return groupForeignKeys(rows), nil
}

func (e sqliteExtractor) PrimaryKey(ctx context.Context, dbConn *sql.DB, _ string, table string) (catalog.PrimaryKey, error) {
	info, err := e.tableInfo(ctx, dbConn, table)
	if err != nil {
		return catalog.PrimaryKey{}, err
	}
	keyed := make([]string, len(info)+1)
	var pk catalog.PrimaryKey
	for _, c := range info {
		if c.pk > 0 && c.pk < len(keyed) {
			keyed[c.pk] = c.Name
		}
	}
	for _, name := range keyed {
		if name != "" {
			pk.Columns = append(pk.Columns, name)
		}
	}
	return pk, nil
}

func init() {
	db.Register("sqlite3", sqliteExtractor{})
	db.Register("sqlite", sqliteExtractor{})
}
