package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fulfillment-service/internal/config"
	"fulfillment-service/internal/logger"

	"github.com/gin-gonic/gin"
)

const serviceName = "fulfillment-service"

func main() {
	log, err := logger.InitLogger(serviceName)
	if err != nil {
		panic(err)
	}
	log.Info("发货服务启动中...")

	if err := run(log); err != nil {
		log.Fatal("服务异常退出: %v", err)
	}
	log.Info("发货服务已关闭")
}

func run(log logger.Logger) error {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	return a.run(ctx)
}
