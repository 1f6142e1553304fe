package extractors

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemadiff/internal/catalog"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	dbConn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = dbConn.Close()
	})
	return dbConn, mock
}

func TestPgExtractor_Tables(t *testing.T) {
	dbConn, mock := newMock(t)
	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("accounts").AddRow("users"))

	tables, err := pgExtractor{}.Tables(context.Background(), dbConn, "public")
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "users"}, tables)
}

func TestPgExtractor_TablesEmpty(t *testing.T) {
	dbConn, mock := newMock(t)
	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	tables, err := pgExtractor{}.Tables(context.Background(), dbConn, "public")
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestPgExtractor_Columns(t *testing.T) {
	dbConn, mock := newMock(t)
	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("public", "accounts").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "nullable", "column_default", "ordinal_position"}).
			AddRow("id", "integer", false, "nextval('accounts_id_seq'::regclass)", 1).
			AddRow("name", "character varying", true, nil, 2))

	cols, err := pgExtractor{}.Columns(context.Background(), dbConn, "public", "accounts")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Column{
		{Name: "id", Type: "integer", Nullable: false, Default: sql.NullString{String: "nextval('accounts_id_seq'::regclass)", Valid: true}, Position: 1},
		{Name: "name", Type: "character varying", Nullable: true, Position: 2},
	}, cols)
}

func TestPgExtractor_ColumnsQueryError(t *testing.T) {
	dbConn, mock := newMock(t)
	mock.ExpectQuery("FROM information_schema.columns").WillReturnError(assert.AnError)

	_, err := pgExtractor{}.Columns(context.Background(), dbConn, "public", "accounts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query columns for public.accounts")
}

func TestPgExtractor_Indexes(t *testing.T) {
	dbConn, mock := newMock(t)
	mock.ExpectQuery("FROM pg_indexes").
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"indexname", "indexdef"}).
			AddRow("orders_pkey", "CREATE UNIQUE INDEX orders_pkey ON public.orders USING btree (id)").
			AddRow("orders_user_id_idx", "CREATE INDEX orders_user_id_idx ON public.orders USING btree (user_id)"))

	idx, err := pgExtractor{}.Indexes(context.Background(), dbConn, "public", "orders")
	require.NoError(t, err)
	require.Len(t, idx, 2)
	assert.Equal(t, "orders_user_id_idx", idx[1].Name)
}

func TestPgExtractor_ForeignKeys(t *testing.T) {
	dbConn, mock := newMock(t)
	mock.ExpectQuery("FROM pg_constraint").
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"conname", "def"}).
			AddRow("orders_user_id_fkey", "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"))

	fks, err := pgExtractor{}.ForeignKeys(context.Background(), dbConn, "public", "orders")
	require.NoError(t, err)
	assert.Equal(t, []catalog.ForeignKey{
		{Name: "orders_user_id_fkey", Definition: "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
	}, fks)
}

func TestPgExtractor_PrimaryKey(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
		want catalog.PrimaryKey
	}{
		{
			name: "composite key",
			rows: sqlmock.NewRows([]string{"conname", "attname"}).
				AddRow("memberships_pkey", "org_id").
				AddRow("memberships_pkey", "user_id"),
			want: catalog.PrimaryKey{Name: "memberships_pkey", Columns: []string{"org_id", "user_id"}},
		},
		{
			name: "no key",
			rows: sqlmock.NewRows([]string{"conname", "attname"}),
			want: catalog.PrimaryKey{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbConn, mock := newMock(t)
			mock.ExpectQuery("contype = 'p'").WithArgs("public", "memberships").WillReturnRows(tt.rows)

			pk, err := pgExtractor{}.PrimaryKey(context.Background(), dbConn, "public", "memberships")
			require.NoError(t, err)
			assert.Equal(t, tt.want, pk)
		})
	}
}
