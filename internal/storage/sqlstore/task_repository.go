package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"

	"github.com/jmoiron/sqlx"
)

const taskColumns = `id, task_number, status, items, body_code_image, barcode_image,
	warning_code_image, label_image, manual_image, other_image, creator_name,
	created_at, updated_at, completed_at`

const taskValues = `:id, :task_number, :status, :items, :body_code_image, :barcode_image,
	:warning_code_image, :label_image, :manual_image, :other_image, :creator_name,
	:created_at, :updated_at, :completed_at`

// TaskRepository 任务仓库
type TaskRepository struct {
	db *sqlx.DB
}

// List 获取全部任务
func (r *TaskRepository) List(ctx context.Context) ([]entities.Task, error) {
	tasks := []entities.Task{}
	query := "SELECT " + taskColumns + " FROM tasks ORDER BY created_at DESC"
	if err := sqlx.SelectContext(ctx, r.db, &tasks, query); err != nil {
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}
	return tasks, nil
}

// FindByID 通过ID查找任务
func (r *TaskRepository) FindByID(ctx context.Context, id string) (entities.Task, error) {
	return findTask(ctx, r.db, id)
}

func findTask(ctx context.Context, q sqlx.ExtContext, id string) (entities.Task, error) {
	var task entities.Task
	query := q.Rebind("SELECT " + taskColumns + " FROM tasks WHERE id = ?")
	if err := sqlx.GetContext(ctx, q, &task, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.Task{}, repositories.ErrNotFound
		}
		return entities.Task{}, fmt.Errorf("查询任务失败: %w", err)
	}
	return task, nil
}

// Create 创建任务
func (r *TaskRepository) Create(ctx context.Context, task entities.Task) (entities.Task, error) {
	entities.StampNew(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if task.Status == "" {
		task.Status = entities.TaskStatusPending
	}

	query := "INSERT INTO tasks (" + taskColumns + ") VALUES (" + taskValues + ")"
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, task); err != nil {
		return entities.Task{}, fmt.Errorf("创建任务失败: %w", err)
	}
	return task, nil
}

// Update 更新任务
func (r *TaskRepository) Update(ctx context.Context, id string, dto entities.UpdateTaskDTO) (entities.Task, error) {
	fields := dto.Fields()
	if len(fields) == 0 {
		return r.FindByID(ctx, id)
	}

	now := entities.Now()
	query, args := buildUpdate("tasks", fields, &now, id)
	n, err := execAffected(ctx, r.db, query, args...)
	if err != nil {
		return entities.Task{}, fmt.Errorf("更新任务失败: %w", err)
	}
	if n == 0 {
		return entities.Task{}, repositories.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Count 任务总数
func (r *TaskRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "tasks")
}

// Archive 在一个事务中写入历史记录并删除任务
func (r *TaskRepository) Archive(ctx context.Context, id string, completedAt time.Time) (entities.History, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return entities.History{}, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	task, err := findTask(ctx, tx, id)
	if err != nil {
		return entities.History{}, err
	}

	history := entities.ArchiveOf(task, completedAt.UTC())
	// 重试时历史记录可能已存在
	insert := "INSERT INTO history (" + taskColumns + ") VALUES (" + taskValues + ") ON CONFLICT (id) DO NOTHING"
	if _, err := sqlx.NamedExecContext(ctx, tx, insert, history); err != nil {
		return entities.History{}, fmt.Errorf("写入历史记录失败: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM tasks WHERE id = ?"), id); err != nil {
		return entities.History{}, fmt.Errorf("删除任务失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return entities.History{}, fmt.Errorf("%w: %v", repositories.ErrArchiveIncomplete, err)
	}
	return history, nil
}

// Ship 在一个事务中扣减明细对应的库存并更新任务状态
func (r *TaskRepository) Ship(ctx context.Context, id string, status string) (entities.Task, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return entities.Task{}, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	task, err := findTask(ctx, tx, id)
	if err != nil {
		return entities.Task{}, err
	}

	lines, err := task.Items.Lines()
	if err != nil {
		return entities.Task{}, err
	}

	now := entities.Now()
	demand, order, err := resolveDemand(ctx, tx, lines)
	if err != nil {
		return entities.Task{}, err
	}
	for _, productID := range order {
		qty := demand[productID]
		n, err := execAffected(ctx, tx,
			"UPDATE products SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?",
			qty, now, productID, qty)
		if err != nil {
			return entities.Task{}, fmt.Errorf("扣减库存失败: %w", err)
		}
		if n == 0 {
			return entities.Task{}, fmt.Errorf("%w: 商品%s", repositories.ErrInsufficientStock, productID)
		}
	}

	if _, err := execAffected(ctx, tx, "UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?", status, now, id); err != nil {
		return entities.Task{}, fmt.Errorf("更新任务状态失败: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return entities.Task{}, fmt.Errorf("提交发货事务失败: %w", err)
	}

	task.Status = status
	task.UpdatedAt = now
	return task, nil
}

// resolveDemand 按商品汇总需求量，保持明细中的顺序，未知商品被忽略
func resolveDemand(ctx context.Context, q sqlx.ExtContext, lines []entities.ItemLine) (map[string]int, []string, error) {
	demand := make(map[string]int)
	var order []string
	for _, line := range lines {
		column, value := line.Ref()
		if column == "" || line.Quantity <= 0 {
			continue
		}
		product, err := findProduct(ctx, q, column, value)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if _, ok := demand[product.ID]; !ok {
			order = append(order, product.ID)
		}
		demand[product.ID] += line.Quantity
	}
	return demand, order, nil
}
