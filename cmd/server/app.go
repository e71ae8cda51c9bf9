package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fulfillment-service/internal/api"
	"fulfillment-service/internal/auth"
	"fulfillment-service/internal/config"
	"fulfillment-service/internal/discovery"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/messaging"
	"fulfillment-service/internal/services"
	"fulfillment-service/internal/storage"

	"golang.org/x/sync/errgroup"
)

// prepareRetryInterval 建表失败后的重试间隔
const prepareRetryInterval = 5 * time.Second

// app 服务运行所需的组件
type app struct {
	cfg       *config.Config
	log       logger.Logger
	store     repositories.Store
	publisher messaging.Publisher
	server    *http.Server

	// prepare 建表并写入演示数据，数据库不可用时返回错误
	prepare       func(ctx context.Context) error
	retryInterval time.Duration
}

// newApp 初始化存储、服务层和路由
//
// 数据库不可用不会导致失败，建表在run中后台重试。
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	// 初始化存储层
	store, err := storage.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	// 初始化JWT验证，未配置密钥时使用随机密钥
	secret := cfg.JWT.Secret
	if secret == "" {
		if secret, err = auth.RandomSecret(); err != nil {
			store.Close()
			return nil, err
		}
		log.Warn("未配置JWT_SECRET，使用进程内随机密钥，重启后已签发的令牌失效")
	}
	jwtService := auth.NewJWTService(secret, cfg.JWT.Expiry())

	publisher, err := messaging.NewPublisher(cfg.Kafka, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	// 初始化服务层
	userService := services.NewUserService(store.Users(), log)
	svc := api.Services{
		Products:   services.NewProductService(store.Products(), log),
		Tasks:      services.NewTaskService(store.Tasks(), publisher, log),
		History:    services.NewHistoryService(store.History(), log),
		Activities: services.NewActivityService(store.Activities(), publisher, log),
		Users:      userService,
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		store:     store,
		publisher: publisher,
		server: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           api.NewRouter(svc, jwtService, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		retryInterval: prepareRetryInterval,
	}
	a.prepare = func(ctx context.Context) error {
		if err := store.CreateTables(ctx); err != nil {
			return err
		}
		if !cfg.Database.SeedDemo {
			return nil
		}
		return services.NewSeeder(store, userService, cfg.Seed.Password, log).Seed(ctx)
	}
	return a, nil
}

// run 启动HTTP服务，ctx取消后优雅关闭
func (a *app) run(ctx context.Context) error {
	registrar := register(a.cfg, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("发货服务已启动，端口: %s", a.cfg.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if prepareWithRetry(gctx, a.prepare, a.retryInterval, a.log) {
			a.log.Info("数据表已就绪")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("正在关闭发货服务...")

		if registrar != nil {
			if err := registrar.Deregister(); err != nil {
				a.log.WithError(err).Warn("从Nacos注销服务失败")
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// close 关闭事件发布者和存储
func (a *app) close() {
	if err := a.publisher.Close(); err != nil {
		a.log.WithError(err).Warn("关闭事件发布者失败")
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("关闭存储失败")
	}
}

// prepareWithRetry 执行prepare直到成功，ctx取消时返回false
func prepareWithRetry(ctx context.Context, prepare func(context.Context) error, interval time.Duration, log logger.Logger) bool {
	for {
		err := prepare(ctx)
		if err == nil {
			return true
		}
		log.WithError(err).Error("初始化数据表失败，%s后重试", interval)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

// register 启用Nacos时注册服务，失败只记录日志
func register(cfg *config.Config, log logger.Logger) *discovery.Registrar {
	if !cfg.Nacos.Enable {
		return nil
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.WithError(err).Warn("端口无效，跳过Nacos注册")
		return nil
	}

	registrar, err := discovery.NewRegistrar(cfg.Nacos, "", port, log)
	if err != nil {
		log.WithError(err).Warn("初始化Nacos客户端失败")
		return nil
	}
	if err := registrar.Register(); err != nil {
		log.WithError(err).Warn("注册服务到Nacos失败")
		return nil
	}
	return registrar
}
