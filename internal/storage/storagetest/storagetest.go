// Package storagetest 对所有存储后端执行同一组行为测试
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Opener 为每个子测试创建一个空的、已建表的存储
type Opener func(t *testing.T) repositories.Store

// Run 执行全部测试
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s repositories.Store)
	}{
		{"ProductCreateAndList", testProductCreateAndList},
		{"ProductPartialUpdate", testProductPartialUpdate},
		{"ProductDelete", testProductDelete},
		{"TaskItemsRoundTrip", testTaskItemsRoundTrip},
		{"TaskUpdate", testTaskUpdate},
		{"ArchiveMissingTask", testArchiveMissingTask},
		{"ArchiveTask", testArchiveTask},
		{"ArchiveIsIdempotent", testArchiveIsIdempotent},
		{"ConcurrentInserts", testConcurrentInserts},
		{"ShipConsumesStock", testShipConsumesStock},
		{"ShipInsufficientStock", testShipInsufficientStock},
		{"HistoryCreate", testHistoryCreate},
		{"ActivitiesNewestFirst", testActivitiesNewestFirst},
		{"Users", testUsers},
		{"DropAndCreateTables", testDropAndCreateTables},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func demoProduct(code string, qty int) entities.Product {
	return entities.Product{
		ProductCode:     code,
		ProductName:     "测试商品" + code,
		ProductSupplier: "供应商A",
		Quantity:        qty,
		PurchasePrice:   decimal.RequireFromString("12.5"),
		SalePrice:       decimal.RequireFromString("19.99"),
		Image:           "https://img.example.com/" + code + ".png",
	}
}

func testProductCreateAndList(t *testing.T, s repositories.Store) {
	ctx := context.Background()

	created, err := s.Products().Create(ctx, demoProduct("PRD010", 100))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	list, err := s.Products().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	if diff := cmp.Diff(created, list[0]); diff != "" {
		t.Errorf("列表中的商品与创建结果不一致 (-want +got):\n%s", diff)
	}

	found, err := s.Products().FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "PRD010", found.ProductCode)
	assert.True(t, found.SalePrice.Equal(decimal.RequireFromString("19.99")))

	_, err = s.Products().FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testProductPartialUpdate(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	created, err := s.Products().Create(ctx, demoProduct("PRD011", 10))
	require.NoError(t, err)

	unchanged, err := s.Products().Update(ctx, created.ID, entities.UpdateProductDTO{})
	require.NoError(t, err)
	if diff := cmp.Diff(created, unchanged); diff != "" {
		t.Errorf("空更新修改了商品 (-want +got):\n%s", diff)
	}

	qty := 5
	updated, err := s.Products().Update(ctx, created.ID, entities.UpdateProductDTO{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	want := created
	want.Quantity = 5
	want.UpdatedAt = updated.UpdatedAt
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Errorf("更新了数量以外的字段 (-want +got):\n%s", diff)
	}

	_, err = s.Products().Update(ctx, "missing", entities.UpdateProductDTO{Quantity: &qty})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testProductDelete(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	created, err := s.Products().Create(ctx, demoProduct("PRD012", 1))
	require.NoError(t, err)

	require.NoError(t, s.Products().Delete(ctx, created.ID))
	assert.ErrorIs(t, s.Products().Delete(ctx, created.ID), repositories.ErrNotFound)

	n, err := s.Products().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func demoTask(number string, items string) entities.Task {
	return entities.Task{TaskFields: entities.TaskFields{
		TaskNumber:       number,
		Items:            entities.Items(items),
		BodyCodeImage:    "body.png",
		BarcodeImage:     "barcode.png",
		WarningCodeImage: "warning.png",
		LabelImage:       "label.png",
		ManualImage:      "manual.png",
		OtherImage:       "other.png",
		CreatorName:      "张三",
	}}
}

func testTaskItemsRoundTrip(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	items := `[{"product_code":"PRD010","quantity":2,"note":"易碎"},{"product_code":"PRD011","quantity":1}]`

	created, err := s.Tasks().Create(ctx, demoTask("T-1", items))
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusPending, created.Status)
	assert.Nil(t, created.CompletedAt)

	found, err := s.Tasks().FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, found.Items.Equal(entities.Items(items)), "items=%s", found.Items)
	if diff := cmp.Diff(created, found); diff != "" {
		t.Errorf("任务读写不一致 (-want +got):\n%s", diff)
	}
}

func testTaskUpdate(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	created, err := s.Tasks().Create(ctx, demoTask("T-2", `[]`))
	require.NoError(t, err)

	status := "处理中"
	items := entities.Items(`[{"product_code":"X","quantity":1}]`)
	completed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	updated, err := s.Tasks().Update(ctx, created.ID, entities.UpdateTaskDTO{
		Status:      &status,
		Items:       &items,
		CompletedAt: &completed,
	})
	require.NoError(t, err)
	assert.Equal(t, status, updated.Status)
	assert.True(t, updated.Items.Equal(items))
	require.NotNil(t, updated.CompletedAt)
	assert.True(t, updated.CompletedAt.Equal(completed))
	assert.Equal(t, created.TaskNumber, updated.TaskNumber)
	assert.Equal(t, created.LabelImage, updated.LabelImage)

	_, err = s.Tasks().Update(ctx, "missing", entities.UpdateTaskDTO{Status: &status})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testArchiveMissingTask(t *testing.T, s repositories.Store) {
	ctx := context.Background()

	_, err := s.Tasks().Archive(ctx, "missing", entities.Now())
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	n, err := s.History().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testArchiveTask(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	task, err := s.Tasks().Create(ctx, demoTask("T-3", `[{"product_code":"PRD010","quantity":2}]`))
	require.NoError(t, err)
	other, err := s.Tasks().Create(ctx, demoTask("T-4", `[]`))
	require.NoError(t, err)

	now := entities.Now()
	history, err := s.Tasks().Archive(ctx, task.ID, now)
	require.NoError(t, err)
	assert.Equal(t, task.ID, history.ID)
	assert.True(t, history.CompletedAt.Equal(now))

	tasks, err := s.Tasks().List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, other.ID, tasks[0].ID)

	archived, err := s.History().FindByID(ctx, task.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(task.TaskFields, archived.TaskFields); diff != "" {
		t.Errorf("归档内容与任务不一致 (-want +got):\n%s", diff)
	}

	_, err = s.Tasks().Archive(ctx, task.ID, now)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	n, err := s.History().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testArchiveIsIdempotent(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	completed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	task := demoTask("T-5", `[]`)
	task.CompletedAt = &completed
	task, err := s.Tasks().Create(ctx, task)
	require.NoError(t, err)

	// 上一次归档写入了历史记录但任务未删除
	_, err = s.History().Create(ctx, entities.ArchiveOf(task, completed))
	require.NoError(t, err)

	history, err := s.Tasks().Archive(ctx, task.ID, entities.Now())
	require.NoError(t, err)
	assert.True(t, history.CompletedAt.Equal(completed))

	n, err := s.History().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.Tasks().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testConcurrentInserts(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	const workers = 20

	ids := make([]string, workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			p, err := s.Products().Create(gctx, demoProduct(fmt.Sprintf("C%03d", i), i))
			if err != nil {
				return err
			}
			ids[i] = p.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]bool, workers)
	for i, id := range ids {
		require.False(t, seen[id], "重复的ID %s", id)
		seen[id] = true

		p, err := s.Products().FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("C%03d", i), p.ProductCode)
	}

	n, err := s.Products().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}

func testShipConsumesStock(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	a, err := s.Products().Create(ctx, demoProduct("A", 5))
	require.NoError(t, err)
	b, err := s.Products().Create(ctx, demoProduct("B", 1))
	require.NoError(t, err)

	items := fmt.Sprintf(`[{"product_code":"A","quantity":2},{"product_id":%q,"quantity":1},{"product_code":"A","quantity":1},{"product_code":"UNKNOWN","quantity":9}]`, b.ID)
	task, err := s.Tasks().Create(ctx, demoTask("T-6", items))
	require.NoError(t, err)

	shipped, err := s.Tasks().Ship(ctx, task.ID, entities.TaskStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusShipped, shipped.Status)

	a, err = s.Products().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Quantity)
	b, err = s.Products().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Quantity)

	found, err := s.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusShipped, found.Status)

	_, err = s.Tasks().Ship(ctx, "missing", entities.TaskStatusShipped)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testShipInsufficientStock(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	a, err := s.Products().Create(ctx, demoProduct("A", 5))
	require.NoError(t, err)
	b, err := s.Products().Create(ctx, demoProduct("B", 0))
	require.NoError(t, err)

	task, err := s.Tasks().Create(ctx, demoTask("T-7", `[{"product_code":"A","quantity":1},{"product_code":"B","quantity":5}]`))
	require.NoError(t, err)

	_, err = s.Tasks().Ship(ctx, task.ID, entities.TaskStatusShipped)
	require.ErrorIs(t, err, repositories.ErrInsufficientStock)

	a, err = s.Products().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, a.Quantity, "失败的发货不应扣减任何库存")
	b, err = s.Products().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Quantity)

	found, err := s.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusPending, found.Status)
}

func testHistoryCreate(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	created, err := s.History().Create(ctx, entities.History{TaskFields: entities.TaskFields{
		TaskNumber: "H-1",
		Status:     entities.TaskStatusShipped,
		Items:      entities.Items(`[{"product_code":"A","quantity":1}]`),
	}})
	require.NoError(t, err)
	assert.False(t, created.CompletedAt.IsZero())

	list, err := s.History().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	if diff := cmp.Diff(created, list[0]); diff != "" {
		t.Errorf("历史记录读写不一致 (-want +got):\n%s", diff)
	}

	_, err = s.History().FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testActivitiesNewestFirst(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	base := entities.Now()

	older, err := s.Activities().Create(ctx, entities.Activity{Type: "ship", Details: "发货", Actor: "warehouse", Time: "10:00", CreatedAt: base.Add(-time.Minute)})
	require.NoError(t, err)
	newer, err := s.Activities().Create(ctx, entities.Activity{Type: "create", Details: "创建", Actor: "sales", Time: "10:01", CreatedAt: base})
	require.NoError(t, err)

	list, err := s.Activities().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.Equal(t, "10:00", list[1].Time)
	assert.Equal(t, "ship", list[1].Type)
}

func testUsers(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	user := entities.User{
		Email:    "admin@example.com",
		Password: "$2a$10$hash",
		Name:     "管理员",
		Role:     entities.RoleAdmin,
		Settings: entities.Settings{"theme": "dark"},
		IsActive: true,
	}

	created, err := s.Users().Create(ctx, user)
	require.NoError(t, err)

	_, err = s.Users().Create(ctx, user)
	assert.ErrorIs(t, err, repositories.ErrEmailExists)

	found, err := s.Users().FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "$2a$10$hash", found.Password)
	assert.Equal(t, entities.Settings{"theme": "dark"}, found.Settings)
	assert.True(t, found.IsActive)
	assert.Nil(t, found.LastLogin)

	name := "新名字"
	updated, err := s.Users().UpdateProfile(ctx, created.ID, entities.UpdateProfileDTO{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, entities.RoleAdmin, updated.Role)

	at := entities.Now()
	require.NoError(t, s.Users().TouchLastLogin(ctx, created.ID, at))
	found, err = s.Users().FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.True(t, found.LastLogin.Equal(at))

	assert.ErrorIs(t, s.Users().TouchLastLogin(ctx, "missing", at), repositories.ErrNotFound)
	_, err = s.Users().FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testDropAndCreateTables(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	_, err := s.Products().Create(ctx, demoProduct("D", 1))
	require.NoError(t, err)

	require.NoError(t, s.DropTables(ctx))
	require.NoError(t, s.DropTables(ctx))
	require.NoError(t, s.CreateTables(ctx))
	require.NoError(t, s.CreateTables(ctx))

	n, err := s.Products().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, s.Ping(ctx))
}
