package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// 表名，删除时按此顺序
var tables = []string{"activities", "history", "tasks", "products", "users"}

// dialect 不同数据库的列类型差异
type dialect struct {
	name      string
	json      string
	timestamp string
	numeric   string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres":
		return dialect{name: driver, json: "JSONB", timestamp: "TIMESTAMPTZ", numeric: "NUMERIC(12,2)"}, nil
	case "sqlite":
		// TIMESTAMP声明让驱动把列值解析为time.Time
		return dialect{name: driver, json: "TEXT", timestamp: "TIMESTAMP", numeric: "NUMERIC"}, nil
	}
	return dialect{}, fmt.Errorf("不支持的数据库驱动: %s", driver)
}

const taskColumnsDDL = `
	task_number TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	items {json} NOT NULL DEFAULT '[]',
	body_code_image TEXT NOT NULL DEFAULT '',
	barcode_image TEXT NOT NULL DEFAULT '',
	warning_code_image TEXT NOT NULL DEFAULT '',
	label_image TEXT NOT NULL DEFAULT '',
	manual_image TEXT NOT NULL DEFAULT '',
	other_image TEXT NOT NULL DEFAULT '',
	creator_name TEXT NOT NULL DEFAULT '',
	created_at {ts} NOT NULL,
	updated_at {ts} NOT NULL,`

var schemaTemplates = []string{
	`CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	product_code TEXT NOT NULL DEFAULT '',
	product_name TEXT NOT NULL DEFAULT '',
	product_supplier TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL DEFAULT 0,
	purchase_price {num} NOT NULL DEFAULT 0,
	sale_price {num} NOT NULL DEFAULT 0,
	image TEXT NOT NULL DEFAULT '',
	created_at {ts} NOT NULL,
	updated_at {ts} NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,` + taskColumnsDDL + `
	completed_at {ts}
)`,
	`CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,` + taskColumnsDDL + `
	completed_at {ts} NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	activity_time TEXT NOT NULL DEFAULT '',
	activity_type TEXT NOT NULL DEFAULT '',
	details TEXT NOT NULL DEFAULT '',
	actor TEXT NOT NULL DEFAULT '',
	created_at {ts} NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL CHECK (role IN ('admin', 'sales', 'warehouse')),
	company_name TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	settings {json} NOT NULL DEFAULT '{}',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	last_login {ts},
	created_at {ts} NOT NULL,
	updated_at {ts} NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_products_code ON products (product_code)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_history_completed_at ON history (completed_at)`,
}

// schema 生成当前方言的建表语句
func (d dialect) schema() []string {
	r := strings.NewReplacer("{json}", d.json, "{ts}", d.timestamp, "{num}", d.numeric)
	stmts := make([]string, len(schemaTemplates))
	for i, tpl := range schemaTemplates {
		stmts[i] = r.Replace(tpl)
	}
	return stmts
}

// isUniqueViolation 是否为唯一约束冲突
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
