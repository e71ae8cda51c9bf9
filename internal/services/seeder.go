package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"

	"github.com/shopspring/decimal"
)

// Seeder 为空表写入演示数据
type Seeder struct {
	store    repositories.Store
	users    *UserService
	password string
	log      logger.Logger
}

// NewSeeder 创建演示数据写入器，password为演示用户的登录密码
func NewSeeder(store repositories.Store, users *UserService, password string, log logger.Logger) *Seeder {
	return &Seeder{store: store, users: users, password: password, log: log}
}

// DemoUsers 演示用户，每个角色一个
var DemoUsers = []entities.CreateUserDTO{
	{Email: "admin@example.com", Name: "系统管理员", Role: entities.RoleAdmin, Language: "zh-CN", Currency: "CNY"},
	{Email: "sales@example.com", Name: "销售小王", Role: entities.RoleSales, Language: "zh-CN", Currency: "CNY"},
	{Email: "warehouse@example.com", Name: "仓库老李", Role: entities.RoleWarehouse, Language: "zh-CN", Currency: "CNY"},
}

// Seed 表为空时写入演示数据，重复执行不会产生重复数据
func (s *Seeder) Seed(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) (bool, error)
	}{
		{"products", s.seedProducts},
		{"tasks", s.seedTasks},
		{"history", s.seedHistory},
		{"activities", s.seedActivities},
		{"users", s.seedUsers},
	}

	for _, step := range steps {
		seeded, err := step.fn(ctx)
		if err != nil {
			return fmt.Errorf("写入%s演示数据失败: %w", step.name, err)
		}
		if seeded {
			s.log.InfoContext(ctx, "已写入演示数据: %s", step.name)
		}
	}
	return nil
}

func isEmpty(ctx context.Context, count func(context.Context) (int, error)) (bool, error) {
	n, err := count(ctx)
	return n == 0, err
}

func (s *Seeder) seedProducts(ctx context.Context) (bool, error) {
	repo := s.store.Products()
	if empty, err := isEmpty(ctx, repo.Count); err != nil || !empty {
		return false, err
	}

	products := []entities.Product{
		{ProductCode: "PRD001", ProductName: "无线鼠标", ProductSupplier: "深圳电子", Quantity: 120,
			PurchasePrice: decimal.RequireFromString("35.00"), SalePrice: decimal.RequireFromString("59.90")},
		{ProductCode: "PRD002", ProductName: "机械键盘", ProductSupplier: "东莞外设", Quantity: 45,
			PurchasePrice: decimal.RequireFromString("180.00"), SalePrice: decimal.RequireFromString("299.00")},
		{ProductCode: "PRD003", ProductName: "USB-C数据线", ProductSupplier: "深圳电子", Quantity: 500,
			PurchasePrice: decimal.RequireFromString("4.50"), SalePrice: decimal.RequireFromString("12.00")},
	}
	for _, p := range products {
		if _, err := repo.Create(ctx, p); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Seeder) seedTasks(ctx context.Context) (bool, error) {
	repo := s.store.Tasks()
	if empty, err := isEmpty(ctx, repo.Count); err != nil || !empty {
		return false, err
	}

	tasks := []entities.TaskFields{
		{TaskNumber: "T20240001", Status: entities.TaskStatusPending, CreatorName: "销售小王",
			Items: entities.Items(`[{"product_code":"PRD001","quantity":2}]`)},
		{TaskNumber: "T20240002", Status: entities.TaskStatusPending, CreatorName: "销售小王",
			Items: entities.Items(`[{"product_code":"PRD002","quantity":1},{"product_code":"PRD003","quantity":3}]`)},
		{TaskNumber: "T20240003", Status: "处理中", CreatorName: "系统管理员",
			Items: entities.Items(`[{"product_code":"PRD003","quantity":10}]`)},
	}
	for _, fields := range tasks {
		if _, err := repo.Create(ctx, entities.Task{TaskFields: fields}); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Seeder) seedHistory(ctx context.Context) (bool, error) {
	repo := s.store.History()
	if empty, err := isEmpty(ctx, repo.Count); err != nil || !empty {
		return false, err
	}

	now := entities.Now()
	for i, number := range []string{"T20230098", "T20230099", "T20230100"} {
		completed := now.Add(-time.Duration(3-i) * 24 * time.Hour)
		_, err := repo.Create(ctx, entities.History{
			TaskFields: entities.TaskFields{
				TaskNumber:  number,
				Status:      entities.TaskStatusShipped,
				CreatorName: "销售小王",
				Items:       entities.Items(`[{"product_code":"PRD001","quantity":1}]`),
			},
			CreatedAt:   completed.Add(-time.Hour),
			CompletedAt: completed,
		})
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Seeder) seedActivities(ctx context.Context) (bool, error) {
	repo := s.store.Activities()
	if empty, err := isEmpty(ctx, repo.Count); err != nil || !empty {
		return false, err
	}

	now := entities.Now()
	activities := []entities.Activity{
		{Type: "login", Details: "系统管理员登录", Actor: "admin@example.com", CreatedAt: now.Add(-2 * time.Minute)},
		{Type: "task_create", Details: "创建任务T20240001", Actor: "sales@example.com", CreatedAt: now.Add(-time.Minute)},
		{Type: "product_update", Details: "更新商品PRD003库存", Actor: "warehouse@example.com", CreatedAt: now},
	}
	for _, a := range activities {
		a.Time = a.CreatedAt.Format(time.DateTime)
		if _, err := repo.Create(ctx, a); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Seeder) seedUsers(ctx context.Context) (bool, error) {
	seeded := false
	for _, dto := range DemoUsers {
		dto.Password = s.password
		_, err := s.users.Create(ctx, dto)
		if errors.Is(err, repositories.ErrEmailExists) {
			continue
		}
		if err != nil {
			return seeded, err
		}
		seeded = true
	}
	return seeded, nil
}
