package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.CreateTables(context.Background()))
	return store
}

func TestSQLiteConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) repositories.Store {
		return openSQLite(t)
	})
}

// TEST_POSTGRES_DSN 未设置时跳过，每个子测试前清空所有表
func TestPostgresConformance(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN未设置")
	}

	storagetest.Run(t, func(t *testing.T) repositories.Store {
		store, err := OpenPostgres(dsn, Options{MaxOpenConns: 5})
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })

		ctx := context.Background()
		require.NoError(t, store.Ping(ctx))
		require.NoError(t, store.DropTables(ctx))
		require.NoError(t, store.CreateTables(ctx))
		return store
	})
}

func TestBuildUpdate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	query, args := buildUpdate("products", []entities.Field{
		{Column: "quantity", Value: 5},
		{Column: "image", Value: "a.png"},
	}, &now, "p1")

	assert.Equal(t, "UPDATE products SET quantity = ?, image = ?, updated_at = ? WHERE id = ?", query)
	assert.Equal(t, []interface{}{5, "a.png", now, "p1"}, args)
}

func TestDialectSchema(t *testing.T) {
	pg, err := dialectFor("postgres")
	require.NoError(t, err)
	stmts := pg.schema()
	assert.Contains(t, stmts[0], "NUMERIC(12,2)")
	assert.Contains(t, stmts[1], "items JSONB")
	assert.Contains(t, stmts[4], "CHECK (role IN ('admin', 'sales', 'warehouse'))")
	for _, s := range stmts {
		for _, placeholder := range []string{"{json}", "{ts}", "{num}"} {
			assert.NotContains(t, s, placeholder)
		}
	}
	assert.Contains(t, stmts[4], "DEFAULT '{}'")

	_, err = dialectFor("mysql")
	assert.Error(t, err)
}

func TestRoleCheckConstraint(t *testing.T) {
	store := openSQLite(t)

	_, err := store.Users().Create(context.Background(), entities.User{
		Email:    "x@example.com",
		Password: "hash",
		Role:     "superuser",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, repositories.ErrEmailExists)
}

func TestQueriesFailAfterClose(t *testing.T) {
	store := openSQLite(t)
	require.NoError(t, store.Close())

	_, err := store.Products().List(context.Background())
	assert.Error(t, err)
	assert.Error(t, store.Ping(context.Background()))
}
