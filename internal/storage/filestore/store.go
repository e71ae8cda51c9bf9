package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
)

// userRecord 文件中的用户记录，额外保存密码哈希
type userRecord struct {
	entities.User
	PasswordHash string `json:"password_hash"`
}

// document data.json的结构
type document struct {
	Products   []entities.Product  `json:"products"`
	Tasks      []entities.Task     `json:"tasks"`
	History    []entities.History  `json:"history"`
	Activities []entities.Activity `json:"activities"`
	Users      []userRecord        `json:"users"`
}

func (d document) clone() document {
	return document{
		Products:   slices.Clone(d.Products),
		Tasks:      slices.Clone(d.Tasks),
		History:    slices.Clone(d.History),
		Activities: slices.Clone(d.Activities),
		Users:      slices.Clone(d.Users),
	}
}

func (d *document) normalize() {
	if d.Products == nil {
		d.Products = []entities.Product{}
	}
	if d.Tasks == nil {
		d.Tasks = []entities.Task{}
	}
	if d.History == nil {
		d.History = []entities.History{}
	}
	if d.Activities == nil {
		d.Activities = []entities.Activity{}
	}
	if d.Users == nil {
		d.Users = []userRecord{}
	}
}

// Store 基于单个JSON文件的存储
//
// 所有读写都持有同一把锁。每次修改先作用于副本，
// 副本完整写入临时文件并替换原文件之后才生效。
type Store struct {
	path string

	mu  sync.Mutex
	doc document
}

// 确保Store实现了repositories.Store接口
var _ repositories.Store = (*Store)(nil)

// Open 打开数据文件，文件不存在时创建
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.doc.normalize()
		if err := s.persist(s.doc); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("读取数据文件失败: %w", err)
	default:
		if err := json.Unmarshal(data, &s.doc); err != nil {
			return nil, fmt.Errorf("解析数据文件失败: %w", err)
		}
		s.doc.normalize()
	}

	return s, nil
}

// Path 数据文件路径
func (s *Store) Path() string { return s.path }

func (s *Store) Products() repositories.ProductRepository    { return &productRepository{s: s} }
func (s *Store) Tasks() repositories.TaskRepository          { return &taskRepository{s: s} }
func (s *Store) History() repositories.HistoryRepository     { return &historyRepository{s: s} }
func (s *Store) Activities() repositories.ActivityRepository { return &activityRepository{s: s} }
func (s *Store) Users() repositories.UserRepository          { return &userRepository{s: s} }

// Ping 检查数据文件是否可读
func (s *Store) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("数据文件不可用: %w", err)
	}
	return nil
}

// Close 文件存储无需释放资源
func (s *Store) Close() error { return nil }

// CreateTables 确保数据文件存在
func (s *Store) CreateTables(ctx context.Context) error {
	return s.mutate(func(d *document) error { return nil })
}

// DropTables 清空全部数据
func (s *Store) DropTables(ctx context.Context) error {
	return s.mutate(func(d *document) error {
		*d = document{}
		d.normalize()
		return nil
	})
}

// view 在锁内读取当前状态
func (s *Store) view(fn func(d *document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.doc)
}

// mutate 在副本上执行修改，写盘成功后替换当前状态
func (s *Store) mutate(fn func(d *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.normalize()
	if err := s.persist(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

// persist 写入临时文件后原子替换
func (s *Store) persist(d document) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化数据失败: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入数据文件失败: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("替换数据文件失败: %w", err)
	}
	return nil
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}

// newestFirst 按创建时间倒序返回副本
func newestFirst[T any](items []T, createdAt func(T) time.Time) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return createdAt(b).Compare(createdAt(a))
	})
	if out == nil {
		out = []T{}
	}
	return out
}
