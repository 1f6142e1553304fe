// Package render turns catalog descriptors into PostgreSQL DDL text.
package render

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"schemadiff/internal/catalog"
)

var typeMap = map[string]string{
	"character varying":           "TEXT",
	"timestamp without time zone": "TIMESTAMP(3)",
	"boolean":                     "BOOLEAN",
	"integer":                     "INTEGER",
	"bigint":                      "BIGINT",
	"double precision":            "DOUBLE PRECISION",
	"jsonb":                       "JSONB",
}

// MapType translates a catalog type name to the type written in generated
// statements. Names outside the table are returned uppercased.
func MapType(declared string) string {
	if t, ok := typeMap[declared]; ok {
		return t
	}
	return strings.ToUpper(declared)
}

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteList(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = QuoteIdent(n)
	}
	return strings.Join(q, ", ")
}

// ColumnDefinition renders `"name" TYPE [NOT NULL] [DEFAULT expr]`.
// The default expression is copied verbatim.
func ColumnDefinition(col catalog.Column) string {
	var b strings.Builder
	b.WriteString(QuoteIdent(col.Name))
	b.WriteByte(' ')
	b.WriteString(MapType(col.Type))
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Default.Valid && col.Default.String != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default.String)
	}
	return b.String()
}

// InferPrimaryKey returns a key on the first column whose lowercased name is
// exactly "id", named <table>_pkey. Tables without such a column get none.
func InferPrimaryKey(table string, cols []catalog.Column) catalog.PrimaryKey {
	for _, c := range cols {
		if strings.ToLower(c.Name) == "id" {
			return catalog.PrimaryKey{Name: PrimaryKeyName(table, catalog.PrimaryKey{}), Columns: []string{c.Name}}
		}
	}
	return catalog.PrimaryKey{}
}

// PrimaryKeyName is pk.Name, or <table>_pkey when the catalog gave none.
func PrimaryKeyName(table string, pk catalog.PrimaryKey) string {
	if pk.Name != "" {
		return pk.Name
	}
	return table + "_pkey"
}

// CreateTable renders a CREATE TABLE IF NOT EXISTS statement. cols must not be
// empty; pk may be zero, in which case no key clause is written.
func CreateTable(table string, cols []catalog.Column, pk catalog.PrimaryKey) string {
	defs := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		defs = append(defs, "    "+ColumnDefinition(c))
	}
	if !pk.IsZero() {
		defs = append(defs, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)",
			QuoteIdent(PrimaryKeyName(table, pk)), quoteList(pk.Columns)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);", QuoteIdent(table), strings.Join(defs, ",\n"))
}

// AddColumn renders one ALTER TABLE ... ADD COLUMN IF NOT EXISTS statement.
func AddColumn(table string, col catalog.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s;", QuoteIdent(table), ColumnDefinition(col))
}

// AddForeignKey renders an ALTER TABLE ... ADD CONSTRAINT statement.
func AddForeignKey(table string, fk catalog.ForeignKey) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s;", QuoteIdent(table), QuoteIdent(fk.Name), strings.TrimSuffix(strings.TrimSpace(fk.Definition), ";"))
}

// IsCreateIndex reports whether def carries a CREATE INDEX or CREATE UNIQUE INDEX marker.
func IsCreateIndex(def string) bool {
	return strings.Contains(def, "CREATE INDEX") || strings.Contains(def, "CREATE UNIQUE INDEX")
}

// IndexStatements keeps the index definitions that are CREATE [UNIQUE] INDEX
// statements, terminated with a semicolon. The index named skip, normally the
// one backing the primary-key constraint already declared in CREATE TABLE, is dropped.
func IndexStatements(indexes []catalog.Index, skip string) []string {
	var out []string
	for _, ix := range indexes {
		if skip != "" && ix.Name == skip {
			continue
		}
		if !IsCreateIndex(ix.Definition) {
			continue
		}
		def := strings.TrimSpace(ix.Definition)
		if !strings.HasSuffix(def, ";") {
			def += ";"
		}
		out = append(out, def)
	}
	return out
}
