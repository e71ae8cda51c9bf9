package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return store
}

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) repositories.Store {
		return openTemp(t)
	})
}

func TestOpenCreatesEmptyDocument(t *testing.T) {
	store := openTemp(t)

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var doc map[string][]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"products", "tasks", "history", "activities", "users"} {
		v, ok := doc[key]
		assert.True(t, ok, key)
		assert.Empty(t, v, key)
	}
}

func TestMutationsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	store := openTemp(t)

	product, err := store.Products().Create(ctx, entities.Product{ProductCode: "PRD010", Quantity: 3})
	require.NoError(t, err)
	_, err = store.Users().Create(ctx, entities.User{Email: "a@example.com", Password: "hash", Role: entities.RoleSales})
	require.NoError(t, err)

	reopened, err := Open(store.Path())
	require.NoError(t, err)

	found, err := reopened.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Quantity)

	// 密码哈希写入文件但不出现在用户JSON中
	user, err := reopened.Users().FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", user.Password)
	out, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hash")
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := openTemp(t)

	_, err := store.Products().Create(ctx, entities.Product{ProductCode: "KEEP"})
	require.NoError(t, err)
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	// 临时文件路径被目录占用，写入必然失败
	require.NoError(t, os.Mkdir(store.Path()+".tmp", 0o755))

	_, err = store.Products().Create(ctx, entities.Product{ProductCode: "LOST"})
	require.Error(t, err)

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	list, err := store.Products().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "KEEP", list[0].ProductCode)
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := openTemp(t)

	const writers = 10
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			_, err := store.Tasks().Create(ctx, entities.Task{TaskFields: entities.TaskFields{TaskNumber: "T"}})
			return err
		})
	}
	require.NoError(t, g.Wait())

	reopened, err := Open(store.Path())
	require.NoError(t, err)
	n, err := reopened.Tasks().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers, n)
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}
