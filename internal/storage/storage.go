package storage

import (
	"context"
	"fmt"
	"time"

	"fulfillment-service/internal/config"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/storage/filestore"
	"fulfillment-service/internal/storage/sqlstore"
)

// Open 按配置打开存储后端
//
// 关系型数据库连接失败只记录日志，服务继续启动，之后的每次查询单独失败。
func Open(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (repositories.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		log.Info("使用JSON文件存储: %s", cfg.FilePath())
		return filestore.Open(cfg.FilePath())

	case config.BackendSQLite:
		log.Info("使用SQLite存储: %s", cfg.FilePath())
		store, err := sqlstore.OpenSQLite(cfg.FilePath())
		if err != nil {
			return nil, err
		}
		ping(ctx, store, log)
		return store, nil

	case config.BackendPostgres:
		log.Info("连接PostgreSQL: %s", cfg.SafeDSN())
		store, err := sqlstore.OpenPostgres(cfg.DSN(), sqlstore.Options{
			MaxOpenConns:    cfg.MaxOpenConns,
			ConnMaxIdleTime: cfg.IdleTimeout(),
		})
		if err != nil {
			return nil, err
		}
		ping(ctx, store, log)
		return store, nil
	}
	return nil, fmt.Errorf("不支持的存储后端: %q", cfg.Backend)
}

func ping(ctx context.Context, store repositories.Store, log logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		log.WithError(err).Error("数据库连接失败，服务将继续运行")
		return
	}
	log.Info("数据库连接成功")
}
