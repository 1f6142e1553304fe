package extractors

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"schemadiff/internal/catalog"
)

// Dialects without a catalog function that prints DDL report indexes and
// foreign keys one column per row; the helpers below fold those rows into
// the same definition text pg_indexes and pg_get_constraintdef produce.

type indexRow struct {
	name   string
	unique bool
	column string
}

type fkRow struct {
	name      string
	column    string
	refTable  string
	refColumn string
	onDelete  string
	onUpdate  string
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func indexDefinition(name, table string, unique bool, cols []string) string {
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, quoteIdent(name), quoteIdent(table), quoteList(cols))
}

// groupIndexes keeps the order in which index names first appear.
func groupIndexes(table string, rows []indexRow) []catalog.Index {
	var order []string
	cols := map[string][]string{}
	unique := map[string]bool{}
	for _, r := range rows {
		if _, seen := cols[r.name]; !seen {
			order = append(order, r.name)
		}
		cols[r.name] = append(cols[r.name], r.column)
		unique[r.name] = r.unique
	}
	idx := make([]catalog.Index, 0, len(order))
	for _, n := range order {
		idx = append(idx, catalog.Index{Name: n, Definition: indexDefinition(n, table, unique[n], cols[n])})
	}
	return idx
}

// referentialAction renders ON DELETE/ON UPDATE clauses, omitting the defaults.
func referentialAction(verb, rule string) string {
	rule = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(rule, "_", " ")))
	switch rule {
	case "", "NO ACTION", "RESTRICT":
		return ""
	}
	return fmt.Sprintf(" ON %s %s", verb, rule)
}

func fkDefinition(cols []string, refTable string, refCols []string, onDelete, onUpdate string) string {
	def := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s", quoteList(cols), quoteIdent(refTable))
	if len(refCols) > 0 {
		def += fmt.Sprintf(" (%s)", quoteList(refCols))
	}
	return def + referentialAction("UPDATE", onUpdate) + referentialAction("DELETE", onDelete)
}

func groupForeignKeys(rows []fkRow) []catalog.ForeignKey {
	type acc struct {
		first   fkRow
		cols    []string
		refCols []string
	}
	var order []string
	byName := map[string]*acc{}
	for _, r := range rows {
		a, ok := byName[r.name]
		if !ok {
			a = &acc{first: r}
			byName[r.name] = a
			order = append(order, r.name)
		}
		a.cols = append(a.cols, r.column)
		if r.refColumn != "" {
			a.refCols = append(a.refCols, r.refColumn)
		}
	}
	fks := make([]catalog.ForeignKey, 0, len(order))
	for _, n := range order {
		a := byName[n]
		fks = append(fks, catalog.ForeignKey{
			Name:       n,
			Definition: fkDefinition(a.cols, a.first.refTable, a.refCols, a.first.onDelete, a.first.onUpdate),
		})
	}
	return fks
}
