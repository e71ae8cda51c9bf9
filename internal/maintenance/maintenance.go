// Package maintenance 提供建表、删表和系统重置等运维操作
package maintenance

import (
	"context"
	"errors"
	"fmt"

	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"
)

// Purger 可清空的对象存储
type Purger interface {
	Name() string
	Purge(ctx context.Context) (int, error)
}

// Manager 运维操作
type Manager struct {
	schema repositories.Schema
	bucket Purger
	log    logger.Logger
}

// NewManager 创建运维管理器，bucket为nil表示未启用对象存储
func NewManager(schema repositories.Schema, bucket Purger, log logger.Logger) *Manager {
	return &Manager{schema: schema, bucket: bucket, log: log}
}

// CreateAllTables 创建所有表，已存在时不报错
func (m *Manager) CreateAllTables(ctx context.Context) error {
	if err := m.schema.CreateTables(ctx); err != nil {
		return fmt.Errorf("创建表失败: %w", err)
	}
	m.log.InfoContext(ctx, "数据表已创建")
	return nil
}

// DropAllTables 删除所有表，不存在时不报错
func (m *Manager) DropAllTables(ctx context.Context) error {
	if err := m.schema.DropTables(ctx); err != nil {
		return fmt.Errorf("删除表失败: %w", err)
	}
	m.log.InfoContext(ctx, "数据表已删除")
	return nil
}

// ClearBucket 清空存储桶，返回删除的对象数
func (m *Manager) ClearBucket(ctx context.Context) (int, error) {
	if m.bucket == nil {
		return 0, errors.New("未启用对象存储")
	}

	removed, err := m.bucket.Purge(ctx)
	if err != nil {
		return removed, fmt.Errorf("清空存储桶%s失败: %w", m.bucket.Name(), err)
	}
	m.log.InfoContext(ctx, "存储桶%s已清空，删除%d个对象", m.bucket.Name(), removed)
	return removed, nil
}

// ResetSystem 依次清空存储桶、删表、建表
//
// 某一步失败后继续执行后续步骤，返回所有步骤的错误。
func (m *Manager) ResetSystem(ctx context.Context) error {
	type step struct {
		name string
		run  func(context.Context) error
	}

	var steps []step
	if m.bucket != nil {
		steps = append(steps, step{"清空存储桶", func(ctx context.Context) error {
			_, err := m.ClearBucket(ctx)
			return err
		}})
	}
	steps = append(steps,
		step{"删除数据表", m.DropAllTables},
		step{"创建数据表", m.CreateAllTables},
	)

	var errs []error
	for _, s := range steps {
		m.log.InfoContext(ctx, "系统重置: %s", s.name)
		if err := s.run(ctx); err != nil {
			m.log.WithError(err).ErrorContext(ctx, "系统重置步骤失败: %s", s.name)
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	m.log.InfoContext(ctx, "系统重置完成")
	return nil
}
