package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 存储后端
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Seed     SeedConfig     `mapstructure:"seed"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Nacos    NacosConfig    `mapstructure:"nacos"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return ":" + c.Port
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Backend  string `mapstructure:"backend"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // file与sqlite后端的文件路径

	ConnectTimeoutSeconds int  `mapstructure:"connect_timeout_seconds"`
	IdleTimeoutSeconds    int  `mapstructure:"idle_timeout_seconds"`
	MaxOpenConns          int  `mapstructure:"max_open_conns"`
	SeedDemo              bool `mapstructure:"seed_demo"`
}

// DSN PostgreSQL连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, c.ConnectTimeoutSeconds)
}

// SafeDSN 可写入日志的连接串，不含密码
func (c DatabaseConfig) SafeDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.DBName, c.SSLMode)
}

// IdleTimeout 空闲连接超时
func (c DatabaseConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// FilePath 文件类后端的实际路径
func (c DatabaseConfig) FilePath() string {
	if c.Path != "" {
		return c.Path
	}
	if c.Backend == BackendSQLite {
		return "fulfillment.db"
	}
	return "data.json"
}

// SeedConfig 演示数据配置
type SeedConfig struct {
	Password string `mapstructure:"password"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

// Expiry 令牌有效期
func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

// StorageConfig R2/S3兼容对象存储配置
type StorageConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	Region          string `mapstructure:"region"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// NacosConfig Nacos配置
type NacosConfig struct {
	ServerAddr  string            `mapstructure:"server_addr"`  // Nacos服务地址，如localhost:8848
	NamespaceID string            `mapstructure:"namespace_id"` // 命名空间ID，默认为public
	Group       string            `mapstructure:"group"`        // 分组，默认为DEFAULT_GROUP
	ServiceName string            `mapstructure:"service_name"` // 服务名称
	Metadata    map[string]string `mapstructure:"metadata"`     // 服务元数据
	Weight      float64           `mapstructure:"weight"`       // 服务权重
	Enable      bool              `mapstructure:"enable"`       // 是否启用
	LogDir      string            `mapstructure:"log_dir"`      // 日志目录
	CacheDir    string            `mapstructure:"cache_dir"`    // 缓存目录
}

// 环境变量与配置键的对应关系
var envBindings = map[string]string{
	"server.port":               "PORT",
	"database.backend":          "DB_BACKEND",
	"database.host":             "DB_HOST",
	"database.port":             "DB_PORT",
	"database.user":             "DB_USER",
	"database.password":         "DB_PASSWORD",
	"database.dbname":           "DB_NAME",
	"database.sslmode":          "DB_SSLMODE",
	"database.path":             "DB_PATH",
	"database.seed_demo":        "DB_SEED_DEMO",
	"seed.password":             "SEED_PASSWORD",
	"jwt.secret":                "JWT_SECRET",
	"jwt.expiry_hours":          "JWT_EXPIRY_HOURS",
	"storage.enabled":           "R2_ENABLED",
	"storage.endpoint":          "R2_ENDPOINT",
	"storage.access_key_id":     "R2_ACCESS_KEY_ID",
	"storage.secret_access_key": "R2_SECRET_ACCESS_KEY",
	"storage.bucket_name":       "R2_BUCKET_NAME",
	"storage.region":            "R2_REGION",
	"kafka.enabled":             "KAFKA_ENABLED",
	"kafka.brokers":             "KAFKA_BROKERS",
	"kafka.topic":               "KAFKA_TOPIC",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")

	v.SetDefault("database.backend", BackendPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "fulfillment")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "")
	v.SetDefault("database.connect_timeout_seconds", 5)
	v.SetDefault("database.idle_timeout_seconds", 30)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.seed_demo", true)

	v.SetDefault("seed.password", "changeme123")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.bucket_name", "")
	v.SetDefault("storage.region", "auto")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "fulfillment-events")

	v.SetDefault("nacos.enable", false)
	v.SetDefault("nacos.namespace_id", "public")
	v.SetDefault("nacos.group", "DEFAULT_GROUP")
	v.SetDefault("nacos.service_name", "fulfillment-service")
	v.SetDefault("nacos.weight", 10)
}

// Load 从.env、配置文件和环境变量加载配置
//
// 优先级：环境变量 > 配置文件 > 默认值。配置文件不存在时忽略。
func Load() (*Config, error) {
	// .env不存在时忽略
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFile(path)
}

// LoadFile 从指定配置文件加载配置
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isMissingFile(err) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendPostgres, BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("不支持的存储后端: %q", c.Database.Backend)
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("jwt.expiry_hours必须大于0")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("启用Kafka时必须配置brokers")
	}
	if c.Storage.Enabled && (c.Storage.Endpoint == "" || c.Storage.BucketName == "") {
		return errors.New("启用对象存储时必须配置endpoint和bucket_name")
	}
	return nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
