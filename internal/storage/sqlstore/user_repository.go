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

const userColumns = `id, email, password_hash, name, role, company_name, currency,
	language, settings, is_active, last_login, created_at, updated_at`

// UserRepository 用户仓库
type UserRepository struct {
	db *sqlx.DB
}

// List 获取全部用户
func (r *UserRepository) List(ctx context.Context) ([]entities.User, error) {
	users := []entities.User{}
	query := "SELECT " + userColumns + " FROM users ORDER BY created_at DESC"
	if err := sqlx.SelectContext(ctx, r.db, &users, query); err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return users, nil
}

// FindByID 通过ID查找用户
func (r *UserRepository) FindByID(ctx context.Context, id string) (entities.User, error) {
	return r.findBy(ctx, "id", id)
}

// FindByEmail 通过邮箱查找用户
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (entities.User, error) {
	return r.findBy(ctx, "email", email)
}

func (r *UserRepository) findBy(ctx context.Context, column, value string) (entities.User, error) {
	var user entities.User
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE " + column + " = ?")
	if err := sqlx.GetContext(ctx, r.db, &user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.User{}, repositories.ErrNotFound
		}
		return entities.User{}, fmt.Errorf("查询用户失败: %w", err)
	}
	return user, nil
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user entities.User) (entities.User, error) {
	entities.StampNew(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if user.Settings == nil {
		user.Settings = entities.Settings{}
	}

	query := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :email, :password_hash, :name, :role, :company_name, :currency,
			:language, :settings, :is_active, :last_login, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, user); err != nil {
		if isUniqueViolation(err) {
			return entities.User{}, repositories.ErrEmailExists
		}
		return entities.User{}, fmt.Errorf("创建用户失败: %w", err)
	}
	return user, nil
}

// UpdateProfile 更新用户资料
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, dto entities.UpdateProfileDTO) (entities.User, error) {
	fields := dto.Fields()
	if len(fields) == 0 {
		return r.FindByID(ctx, id)
	}

	now := entities.Now()
	query, args := buildUpdate("users", fields, &now, id)
	n, err := execAffected(ctx, r.db, query, args...)
	if err != nil {
		return entities.User{}, fmt.Errorf("更新用户失败: %w", err)
	}
	if n == 0 {
		return entities.User{}, repositories.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// TouchLastLogin 记录最后登录时间
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	n, err := execAffected(ctx, r.db, "UPDATE users SET last_login = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("更新登录时间失败: %w", err)
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Count 用户总数
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "users")
}
