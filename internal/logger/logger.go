package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// 日志级别常量
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// TraceIDKey 追踪ID的上下文键
type TraceIDKey string

// ContextKeyTraceID 追踪ID的上下文键名
const ContextKeyTraceID TraceIDKey = "trace_id"

// Logger 统一日志接口
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Fatal(format string, args ...interface{})

	// 带上下文的日志方法，会附带追踪ID
	DebugContext(ctx context.Context, format string, args ...interface{})
	InfoContext(ctx context.Context, format string, args ...interface{})
	WarnContext(ctx context.Context, format string, args ...interface{})
	ErrorContext(ctx context.Context, format string, args ...interface{})
	FatalContext(ctx context.Context, format string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	GetOutput() io.Writer
}

// Config 日志配置
type Config struct {
	Level         string
	ServiceName   string
	FilePath      string
	ConsoleOutput bool
	JSONFormat    bool
	ReportCaller  bool
	// Output 非空时替代控制台与文件输出
	Output io.Writer
}

// DefaultConfig 默认日志配置
func DefaultConfig() Config {
	return Config{
		Level:         LevelInfo,
		ServiceName:   "fulfillment-service",
		FilePath:      "logs/fulfillment-service.log",
		ConsoleOutput: true,
		JSONFormat:    true,
	}
}

type logrusLogger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// NewLogger 创建日志器
func NewLogger(cfg Config) (Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.JSONFormat {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}
	l.SetReportCaller(cfg.ReportCaller)

	out, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	l.SetOutput(out)

	return &logrusLogger{
		logger: l,
		fields: logrus.Fields{"service": cfg.ServiceName},
	}, nil
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}

	var writers []io.Writer
	if cfg.ConsoleOutput {
		writers = append(writers, os.Stdout)
	}
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		writers = append(writers, file)
	}

	switch len(writers) {
	case 0:
		return io.Discard, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

// NewNop 丢弃所有输出的日志器，用于测试
func NewNop() Logger {
	l, _ := NewLogger(Config{Level: LevelError, Output: io.Discard})
	return l
}

// GenerateTraceID 生成追踪ID
func GenerateTraceID() string {
	return uuid.New().String()
}

// WithTraceID 向上下文添加追踪ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ContextKeyTraceID, traceID)
}

// GetTraceID 从上下文获取追踪ID
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(ContextKeyTraceID).(string); ok {
		return traceID
	}
	return ""
}

func (l *logrusLogger) entry(ctx context.Context) *logrus.Entry {
	entry := l.logger.WithFields(l.fields)
	if traceID := GetTraceID(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry
}

func (l *logrusLogger) with(extra logrus.Fields) Logger {
	fields := make(logrus.Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &logrusLogger{logger: l.logger, fields: fields}
}

func (l *logrusLogger) GetOutput() io.Writer { return l.logger.Out }

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return l.with(logrus.Fields{key: value})
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return l.with(fields)
}

func (l *logrusLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.with(logrus.Fields{"error": err.Error()})
}

func (l *logrusLogger) Debug(format string, args ...interface{}) {
	l.entry(context.Background()).Debugf(format, args...)
}

func (l *logrusLogger) Info(format string, args ...interface{}) {
	l.entry(context.Background()).Infof(format, args...)
}

func (l *logrusLogger) Warn(format string, args ...interface{}) {
	l.entry(context.Background()).Warnf(format, args...)
}

func (l *logrusLogger) Error(format string, args ...interface{}) {
	l.entry(context.Background()).Errorf(format, args...)
}

func (l *logrusLogger) Fatal(format string, args ...interface{}) {
	l.entry(context.Background()).Fatalf(format, args...)
}

func (l *logrusLogger) DebugContext(ctx context.Context, format string, args ...interface{}) {
	l.entry(ctx).Debugf(format, args...)
}

func (l *logrusLogger) InfoContext(ctx context.Context, format string, args ...interface{}) {
	l.entry(ctx).Infof(format, args...)
}

func (l *logrusLogger) WarnContext(ctx context.Context, format string, args ...interface{}) {
	l.entry(ctx).Warnf(format, args...)
}

func (l *logrusLogger) ErrorContext(ctx context.Context, format string, args ...interface{}) {
	l.entry(ctx).Errorf(format, args...)
}

func (l *logrusLogger) FatalContext(ctx context.Context, format string, args ...interface{}) {
	l.entry(ctx).Fatalf(format, args...)
}
