package render

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const rule = "-- ============================================\n"

// Script is the generated migration text before it is written out.
type Script struct {
	Source             string
	Destination        string
	DestinationSchema  string
	// DestinationDialect selects the verification query; empty means PostgreSQL.
	DestinationDialect string
	MissingTables      int
	TableStatements    []string
	ColumnStatements   []string
}

// Empty reports whether there is nothing to migrate.
func (s Script) Empty() bool {
	return s.MissingTables == 0 && len(s.ColumnStatements) == 0
}

// VerificationQuery counts the base tables of schema on the destination.
// dialect is a normalized driver name; empty means PostgreSQL. An empty
// schema means the session default (current schema, database or user).
func VerificationQuery(dialect, schema string) string {
	lit := func(fallback string) string {
		if schema == "" {
			return fallback
		}
		return "'" + strings.ReplaceAll(schema, "'", "''") + "'"
	}
	switch dialect {
	case "mysql":
		return "SELECT COUNT(*) AS table_count FROM information_schema.tables\n" +
			fmt.Sprintf("WHERE table_schema = %s AND table_type = 'BASE TABLE';\n", lit("DATABASE()"))
	case "sqlserver":
		return "SELECT COUNT(*) AS table_count FROM information_schema.tables\n" +
			fmt.Sprintf("WHERE table_schema = %s AND table_type = 'BASE TABLE';\n", lit("SCHEMA_NAME()"))
	case "sqlite":
		return "SELECT COUNT(*) AS table_count FROM sqlite_master\n" +
			"WHERE type = 'table' AND name NOT LIKE 'sqlite_%';\n"
	case "godror":
		return fmt.Sprintf("SELECT COUNT(*) AS table_count FROM all_tables WHERE owner = %s;\n", lit("USER"))
	}
	target := "current_schema()"
	if schema != "" {
		target = pq.QuoteLiteral(schema)
	}
	return "SELECT COUNT(*) AS table_count FROM information_schema.tables\n" +
		fmt.Sprintf("WHERE table_schema = %s AND table_type = 'BASE TABLE';\n", target)
}

// String renders the full script. It contains no timestamps, so identical
// inputs always render identical text.
func (s Script) String() string {
	var b strings.Builder
	b.WriteString(rule)
	fmt.Fprintf(&b, "-- Migration: %s -> %s\n", s.Source, s.Destination)
	fmt.Fprintf(&b, "-- Missing tables: %d\n", s.MissingTables)
	b.WriteString(rule)
	b.WriteString("\n")
	if len(s.TableStatements) > 0 {
		b.WriteString(strings.Join(s.TableStatements, "\n\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("-- Verification\n")
	b.WriteString(VerificationQuery(s.DestinationDialect, s.DestinationSchema))

	if len(s.ColumnStatements) > 0 {
		b.WriteString("\n")
		b.WriteString(rule)
		b.WriteString("-- Missing columns in existing tables\n")
		b.WriteString(rule)
		b.WriteString("\n")
		b.WriteString(strings.Join(s.ColumnStatements, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
