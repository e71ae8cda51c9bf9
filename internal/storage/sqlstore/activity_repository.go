package sqlstore

import (
	"context"
	"fmt"

	"fulfillment-service/internal/domain/entities"

	"github.com/jmoiron/sqlx"
)

// ActivityRepository 操作日志仓库
type ActivityRepository struct {
	db *sqlx.DB
}

// List 获取全部操作日志
func (r *ActivityRepository) List(ctx context.Context) ([]entities.Activity, error) {
	activities := []entities.Activity{}
	query := `SELECT id, activity_time, activity_type, details, actor, created_at
		FROM activities ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db, &activities, query); err != nil {
		return nil, fmt.Errorf("查询操作日志失败: %w", err)
	}
	return activities, nil
}

// Create 追加一条操作日志
func (r *ActivityRepository) Create(ctx context.Context, activity entities.Activity) (entities.Activity, error) {
	updatedAt := activity.CreatedAt
	entities.StampNew(&activity.ID, &activity.CreatedAt, &updatedAt)

	query := `INSERT INTO activities (id, activity_time, activity_type, details, actor, created_at)
		VALUES (:id, :activity_time, :activity_type, :details, :actor, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, activity); err != nil {
		return entities.Activity{}, fmt.Errorf("创建操作日志失败: %w", err)
	}
	return activity, nil
}

// Count 操作日志总数
func (r *ActivityRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "activities")
}
