package entities

import "time"

// Activity 操作日志，只追加
type Activity struct {
	ID        string    `json:"id" db:"id"`
	Time      string    `json:"time" db:"activity_time"`
	Type      string    `json:"type" db:"activity_type"`
	Details   string    `json:"details" db:"details"`
	Actor     string    `json:"actor" db:"actor"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateActivityDTO 创建操作日志DTO
type CreateActivityDTO struct {
	Time    string `json:"time"`
	Type    string `json:"type" binding:"required"`
	Details string `json:"details"`
	Actor   string `json:"actor"`
}
