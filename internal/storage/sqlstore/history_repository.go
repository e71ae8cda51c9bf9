package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"

	"github.com/jmoiron/sqlx"
)

// HistoryRepository 历史记录仓库
type HistoryRepository struct {
	db *sqlx.DB
}

// List 获取全部历史记录
func (r *HistoryRepository) List(ctx context.Context) ([]entities.History, error) {
	history := []entities.History{}
	query := "SELECT " + taskColumns + " FROM history ORDER BY created_at DESC"
	if err := sqlx.SelectContext(ctx, r.db, &history, query); err != nil {
		return nil, fmt.Errorf("查询历史记录失败: %w", err)
	}
	return history, nil
}

// FindByID 通过ID查找历史记录
func (r *HistoryRepository) FindByID(ctx context.Context, id string) (entities.History, error) {
	var history entities.History
	query := r.db.Rebind("SELECT " + taskColumns + " FROM history WHERE id = ?")
	if err := sqlx.GetContext(ctx, r.db, &history, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.History{}, repositories.ErrNotFound
		}
		return entities.History{}, fmt.Errorf("查询历史记录失败: %w", err)
	}
	return history, nil
}

// Create 直接创建历史记录
func (r *HistoryRepository) Create(ctx context.Context, history entities.History) (entities.History, error) {
	entities.StampNew(&history.ID, &history.CreatedAt, &history.UpdatedAt)
	if history.CompletedAt.IsZero() {
		history.CompletedAt = history.CreatedAt
	}

	query := "INSERT INTO history (" + taskColumns + ") VALUES (" + taskValues + ")"
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, history); err != nil {
		return entities.History{}, fmt.Errorf("创建历史记录失败: %w", err)
	}
	return history, nil
}

// Count 历史记录总数
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "history")
}
