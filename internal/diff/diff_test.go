package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingTables(t *testing.T) {
	tests := []struct {
		name string
		src  []string
		dst  []string
		want []string
	}{
		{"one missing", []string{"users", "orders"}, []string{"users"}, []string{"orders"}},
		{"subset", []string{"users"}, []string{"users", "orders"}, []string{}},
		{"equal", []string{"a", "b"}, []string{"b", "a"}, []string{}},
		{"empty destination", []string{"b", "a"}, nil, []string{"a", "b"}},
		{"empty source", nil, []string{"a"}, []string{}},
		{"duplicates collapse", []string{"a", "a"}, nil, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MissingTables(tt.src, tt.dst))
		})
	}
}

func TestExtraAndCommonTables(t *testing.T) {
	src := []string{"users", "orders", "accounts"}
	dst := []string{"users", "accounts", "legacy"}

	assert.Equal(t, []string{"legacy"}, ExtraTables(src, dst))
	assert.Equal(t, []string{"accounts", "users"}, CommonTables(src, dst))
}

func TestMissingColumns(t *testing.T) {
	tests := []struct {
		name string
		dev  []string
		prod []string
		want []string
	}{
		{"one missing", []string{"id", "name", "created_at"}, []string{"id", "name"}, []string{"created_at"}},
		{"same set different order", []string{"id", "name"}, []string{"name", "id"}, []string{}},
		{"extra in prod only", []string{"id"}, []string{"id", "legacy"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MissingColumns(tt.dev, tt.prod))
		})
	}
}

func TestWithout(t *testing.T) {
	names := []string{"_prisma_migrations", "users", "orders"}
	assert.Equal(t, []string{"users", "orders"}, Without(names, []string{"_prisma_migrations"}))
	assert.Equal(t, names, Without(names, nil))
}
