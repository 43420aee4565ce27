package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	ports.RunFlowStoreContract(t, store)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flows.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "welcome", []domain.Definition{
		{"id": "a", "type": domain.CardTypeEnd, "name": "Bye"},
	}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	defs, err := store.Load(ctx, "welcome")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Bye", defs[0].Name())
}

func TestSQLiteStore_TableName(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	store := New(db).WithTableName("drop table; --")
	assert.Equal(t, "flows", store.tableName, "unsafe names are ignored")

	store.WithTableName("editor_flows")
	require.NoError(t, store.CreateTables(context.Background()))
	ports.RunFlowStoreContract(t, store)
}
