package db

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"schemadiff/internal/catalog"
	"schemadiff/pkg/config"
)

var testdialect string = "testdialect"

// testExtractor returns fixed, deliberately unsorted metadata.
type testExtractor struct{}

func (testExtractor) DefaultSchema() string { return "testschema" }

func (testExtractor) Tables(ctx context.Context, db *sql.DB, schema string) ([]string, error) {
	return []string{"users", "accounts", "orders"}, nil
}

func (testExtractor) Columns(ctx context.Context, db *sql.DB, schema, table string) ([]catalog.Column, error) {
	return []catalog.Column{{Name: "b", Position: 2}, {Name: "a", Position: 1}}, nil
}

func (testExtractor) Indexes(ctx context.Context, db *sql.DB, schema, table string) ([]catalog.Index, error) {
	return nil, nil
}

func (testExtractor) ForeignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]catalog.ForeignKey, error) {
	return nil, nil
}

func (testExtractor) PrimaryKey(ctx context.Context, db *sql.DB, schema, table string) (catalog.PrimaryKey, error) {
	return catalog.PrimaryKey{}, errors.New("not implemented")
}

func TestRegister(t *testing.T) {
	// tests both Register and RegisteredDialects because they take the same setup

	Register(testdialect, testExtractor{})

	if _, ok := dialects[testdialect]; !ok {
		t.Errorf("\ndialect %v not registered correctly in %v", testdialect, dialects)
	}

	rd := RegisteredDialects()

	if !(len(rd) == 1 && rd[0] == testdialect) {
		t.Errorf("\nRegisteredDialects returned unexpected result %v", rd)
	}
}

func TestConnect(t *testing.T) {

	var tests = []struct {
		name          string
		dialect       string
		dsn           string
		timeout       int
		registerFirst bool
		errIsNil      bool
	}{
		{"unregistered dialect", testdialect, "x", 10, false, false},
		{"no dsn or database name", "sqlite", "", 10, true, false},
		{"unreachable postgres", "postgres", "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1", 2, true, false},
		{"sqlite with testExtractor", "sqlite", ":memory:", 10, true, true},
	}

	for _, tt := range tests {
		// Use t.Run to run each case as a subtest with a descriptive name
		t.Run(tt.name, func(t *testing.T) {
			if tt.registerFirst {
				Register(tt.dialect, testExtractor{})
			}

			conn, err := Connect(context.Background(), "source", config.DBConfig{Type: tt.dialect, DSN: tt.dsn}, tt.timeout)

			if (err == nil) != tt.errIsNil {
				if tt.errIsNil {
					t.Errorf("\ngot unexpected error: \"%v\"", err)
				} else {
					t.Errorf("\nexpected an error, did not receive one")
				}
			}
			if err != nil {
				var ce *ConnectionError
				if !errors.As(err, &ce) || ce.Role != "source" {
					t.Errorf("\nexpected a *ConnectionError for source, got %T: %v", err, err)
				}
				return
			}
			defer conn.Close()
			if conn.Schema != "testschema" {
				t.Errorf("\ngot schema %q, wanted the extractor default", conn.Schema)
			}
		})
	}
}

func TestConnSortsResults(t *testing.T) {
	Register("sqlite", testExtractor{})
	conn, err := Connect(context.Background(), "destination", config.DBConfig{Type: "sqlite", DSN: ":memory:", Schema: "main", Label: "PROD"}, 10)
	if err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}
	defer conn.Close()

	if conn.Name() != "PROD" || conn.Schema != "main" {
		t.Errorf("\ngot name %q schema %q", conn.Name(), conn.Schema)
	}

	tables, err := conn.Tables(context.Background())
	if err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}
	if want := []string{"accounts", "orders", "users"}; !reflect.DeepEqual(tables, want) {
		t.Errorf("\ngot tables %v, wanted %v", tables, want)
	}

	cols, err := conn.Columns(context.Background(), "users")
	if err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}
	if got := catalog.ColumnNames(cols); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("\ngot columns %v, wanted ordinal order", got)
	}

	if _, err := conn.PrimaryKey(context.Background(), "users"); err == nil {
		t.Errorf("\nexpected the extractor error to propagate")
	}
}
