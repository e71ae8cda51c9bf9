package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"

	"github.com/jmoiron/sqlx"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Options 连接池参数
type Options struct {
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

// Store 关系型数据库存储，支持PostgreSQL与SQLite
type Store struct {
	db      *sqlx.DB
	dialect dialect

	products   *ProductRepository
	tasks      *TaskRepository
	history    *HistoryRepository
	activities *ActivityRepository
	users      *UserRepository
}

// 确保Store实现了repositories.Store接口
var _ repositories.Store = (*Store)(nil)

// OpenPostgres 创建PostgreSQL连接池，不会立即建立连接
func OpenPostgres(dsn string, opts Options) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	return New(db)
}

// OpenSQLite 打开SQLite数据库文件
func OpenSQLite(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 单连接避免SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return New(db)
}

// New 基于已有连接创建存储
func New(db *sqlx.DB) (*Store, error) {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, dialect: d}
	s.products = &ProductRepository{db: db}
	s.tasks = &TaskRepository{db: db}
	s.history = &HistoryRepository{db: db}
	s.activities = &ActivityRepository{db: db}
	s.users = &UserRepository{db: db}
	return s, nil
}

// DB 返回底层连接
func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Products() repositories.ProductRepository    { return s.products }
func (s *Store) Tasks() repositories.TaskRepository          { return s.tasks }
func (s *Store) History() repositories.HistoryRepository     { return s.history }
func (s *Store) Activities() repositories.ActivityRepository { return s.activities }
func (s *Store) Users() repositories.UserRepository          { return s.users }

// Ping 检查数据库连接
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTables 幂等地创建所有表
func (s *Store) CreateTables(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("创建表失败: %w", err)
		}
	}
	return nil
}

// DropTables 在一个事务中删除所有表
func (s *Store) DropTables(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("删除表%s失败: %w", table, err)
		}
	}
	return tx.Commit()
}

// buildUpdate 根据允许更新的字段生成UPDATE语句
func buildUpdate(table string, fields []entities.Field, updatedAt *time.Time, id string) (string, []interface{}) {
	sets := make([]string, 0, len(fields)+1)
	args := make([]interface{}, 0, len(fields)+2)
	for _, f := range fields {
		sets = append(sets, f.Column+" = ?")
		args = append(args, f.Value)
	}
	if updatedAt != nil {
		sets = append(sets, "updated_at = ?")
		args = append(args, *updatedAt)
	}
	args = append(args, id)

	return fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", ")), args
}

func count(ctx context.Context, q sqlx.QueryerContext, table string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, err
	}
	return n, nil
}

func execAffected(ctx context.Context, e sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	result, err := e.ExecContext(ctx, e.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
