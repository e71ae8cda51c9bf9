package repositories

import (
	"context"
	"errors"
	"time"

	"fulfillment-service/internal/domain/entities"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrEmailExists 邮箱已被注册
	ErrEmailExists = errors.New("该邮箱已被注册")
	// ErrInsufficientStock 库存不足，发货被拒绝
	ErrInsufficientStock = errors.New("库存不足")
	// ErrArchiveIncomplete 归档事务提交失败，结果未知，可安全重试
	ErrArchiveIncomplete = errors.New("任务归档未完成")
)

// ProductRepository 商品仓库接口
type ProductRepository interface {
	// List 按创建时间倒序返回全部商品
	List(ctx context.Context) ([]entities.Product, error)

	// FindByID 通过ID查找商品
	FindByID(ctx context.Context, id string) (entities.Product, error)

	// Create 创建商品，缺失的ID和时间戳会被补全
	Create(ctx context.Context, product entities.Product) (entities.Product, error)

	// Update 仅更新DTO中给出的字段
	Update(ctx context.Context, id string, dto entities.UpdateProductDTO) (entities.Product, error)

	// Delete 删除商品
	Delete(ctx context.Context, id string) error

	// Count 商品总数
	Count(ctx context.Context) (int, error)
}

// TaskRepository 任务仓库接口
type TaskRepository interface {
	List(ctx context.Context) ([]entities.Task, error)
	FindByID(ctx context.Context, id string) (entities.Task, error)
	Create(ctx context.Context, task entities.Task) (entities.Task, error)
	Update(ctx context.Context, id string, dto entities.UpdateTaskDTO) (entities.Task, error)
	Count(ctx context.Context) (int, error)

	// Archive 原子地将任务复制到历史记录并删除任务
	// 任务没有完成时间时使用completedAt
	Archive(ctx context.Context, id string, completedAt time.Time) (entities.History, error)

	// Ship 原子地按明细扣减库存并更新任务状态
	Ship(ctx context.Context, id string, status string) (entities.Task, error)
}

// HistoryRepository 历史记录仓库接口
type HistoryRepository interface {
	List(ctx context.Context) ([]entities.History, error)
	FindByID(ctx context.Context, id string) (entities.History, error)
	Create(ctx context.Context, history entities.History) (entities.History, error)
	Count(ctx context.Context) (int, error)
}

// ActivityRepository 操作日志仓库接口
type ActivityRepository interface {
	List(ctx context.Context) ([]entities.Activity, error)
	Create(ctx context.Context, activity entities.Activity) (entities.Activity, error)
	Count(ctx context.Context) (int, error)
}

// UserRepository 用户仓库接口
type UserRepository interface {
	List(ctx context.Context) ([]entities.User, error)
	FindByID(ctx context.Context, id string) (entities.User, error)
	FindByEmail(ctx context.Context, email string) (entities.User, error)
	// Create 创建用户，邮箱重复时返回ErrEmailExists
	Create(ctx context.Context, user entities.User) (entities.User, error)
	UpdateProfile(ctx context.Context, id string, dto entities.UpdateProfileDTO) (entities.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context) (int, error)
}

// Schema 表结构管理
type Schema interface {
	CreateTables(ctx context.Context) error
	DropTables(ctx context.Context) error
}

// Store 持久化后端，关系型数据库与JSON文件两种实现可互换
type Store interface {
	Schema

	Products() ProductRepository
	Tasks() TaskRepository
	History() HistoryRepository
	Activities() ActivityRepository
	Users() UserRepository

	// Ping 检查后端是否可用
	Ping(ctx context.Context) error
	Close() error
}
