package logger

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// DefaultLogger 全局日志实例
var DefaultLogger Logger

// InitLogger 从LOG_*环境变量初始化日志系统并设置全局实例
func InitLogger(serviceName string) (Logger, error) {
	cfg := Config{
		Level:         envString("LOG_LEVEL", LevelInfo),
		ServiceName:   serviceName,
		FilePath:      envString("LOG_FILE_PATH", fmt.Sprintf("logs/%s.log", serviceName)),
		ConsoleOutput: envBool("LOG_CONSOLE_OUTPUT", true),
		JSONFormat:    envBool("LOG_JSON_FORMAT", true),
		ReportCaller:  envBool("LOG_REPORT_CALLER", false),
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建日志器失败: %w", err)
	}

	// 标准库日志也写入同一输出
	log.SetOutput(logger.GetOutput())
	log.SetFlags(0)

	logger.Info("日志系统已初始化: 服务=%s, 级别=%s, 文件=%s", serviceName, cfg.Level, cfg.FilePath)

	DefaultLogger = logger
	return logger, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
