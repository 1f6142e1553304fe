package catalog

import "database/sql"

// Column is one column as reported by the catalog.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  sql.NullString
	Position int
}

// Index holds an index name and its full definition text.
type Index struct {
	Name       string
	Definition string
}

// ForeignKey holds a constraint name and its definition, e.g.
// FOREIGN KEY ("user_id") REFERENCES "users" ("id").
type ForeignKey struct {
	Name       string
	Definition string
}

// PrimaryKey is the primary-key constraint of a table. Name may be empty
// when the catalog does not name it (SQLite).
type PrimaryKey struct {
	Name    string
	Columns []string
}

// IsZero reports whether no key columns are known.
func (pk PrimaryKey) IsZero() bool {
	return len(pk.Columns) == 0
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}
