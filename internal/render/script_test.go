package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptString(t *testing.T) {
	s := Script{
		Source:            "DEV",
		Destination:       "PROD",
		DestinationSchema: "public",
		MissingTables:     1,
		TableStatements:   []string{"CREATE TABLE IF NOT EXISTS \"orders\" (\n    \"id\" INTEGER NOT NULL\n);", "CREATE INDEX x ON orders (id);"},
		ColumnStatements:  []string{`ALTER TABLE "accounts" ADD COLUMN IF NOT EXISTS "a" TEXT;`, `ALTER TABLE "accounts" ADD COLUMN IF NOT EXISTS "b" TEXT;`},
	}

	want := `-- ============================================
-- Migration: DEV -> PROD
-- Missing tables: 1
-- ============================================

CREATE TABLE IF NOT EXISTS "orders" (
    "id" INTEGER NOT NULL
);

CREATE INDEX x ON orders (id);

-- Verification
SELECT COUNT(*) AS table_count FROM information_schema.tables
WHERE table_schema = 'public' AND table_type = 'BASE TABLE';

-- ============================================
-- Missing columns in existing tables
-- ============================================

ALTER TABLE "accounts" ADD COLUMN IF NOT EXISTS "a" TEXT;
ALTER TABLE "accounts" ADD COLUMN IF NOT EXISTS "b" TEXT;
`
	assert.Equal(t, want, s.String())
	assert.Equal(t, s.String(), s.String())
	assert.False(t, s.Empty())
}

func TestScriptWithoutColumns(t *testing.T) {
	s := Script{Source: "a", Destination: "b", DestinationSchema: "app's"}
	out := s.String()

	assert.True(t, s.Empty())
	assert.Contains(t, out, "-- Missing tables: 0\n")
	assert.Contains(t, out, "table_schema = 'app''s'")
	assert.NotContains(t, out, "Missing columns")
}

func TestVerificationQuery(t *testing.T) {
	tests := []struct {
		dialect string
		schema  string
		want    string
	}{
		{"", "", "table_schema = current_schema()"},
		{"pgx", "app", "table_schema = 'app'"},
		{"mysql", "", "table_schema = DATABASE()"},
		{"mysql", "shop", "table_schema = 'shop'"},
		{"sqlserver", "", "table_schema = SCHEMA_NAME()"},
		{"sqlserver", "dbo", "table_schema = 'dbo'"},
		{"sqlite", "main", "FROM sqlite_master"},
		{"godror", "", "owner = USER"},
		{"godror", "O'NEIL", "owner = 'O''NEIL'"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.schema, func(t *testing.T) {
			q := VerificationQuery(tt.dialect, tt.schema)
			assert.Contains(t, q, tt.want)
			assert.True(t, strings.HasPrefix(q, "SELECT COUNT(*) AS table_count FROM "))
		})
	}
}

func TestScriptVerificationFollowsDialect(t *testing.T) {
	s := Script{Source: "DEV", Destination: "LOCAL", DestinationSchema: "main", DestinationDialect: "sqlite", MissingTables: 1}
	out := s.String()
	assert.Contains(t, out, "-- Verification\nSELECT COUNT(*) AS table_count FROM sqlite_master\n")
	assert.NotContains(t, out, "information_schema")
}
