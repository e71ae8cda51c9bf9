package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// 价格以JSON数字输出，与前端提交的格式一致
	decimal.MarshalJSONWithoutQuotes = true
}

// NewID 生成实体主键
func NewID() string {
	return uuid.New().String()
}

// Now 返回存储使用的当前时间（UTC，微秒精度，与PostgreSQL一致）
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// StampNew 为新建实体补全ID和时间戳
func StampNew(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = NewID()
	}
	now := Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}
