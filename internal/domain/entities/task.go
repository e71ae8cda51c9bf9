package entities

import (
	"time"
)

// 常用任务状态，状态本身为自由文本
const (
	TaskStatusPending = "pending"
	TaskStatusShipped = "已发货"
)

// TaskFields 任务与历史记录共有的字段
type TaskFields struct {
	TaskNumber       string `json:"task_number" db:"task_number"`
	Status           string `json:"status" db:"status"`
	Items            Items  `json:"items" db:"items"`
	BodyCodeImage    string `json:"body_code_image" db:"body_code_image"`
	BarcodeImage     string `json:"barcode_image" db:"barcode_image"`
	WarningCodeImage string `json:"warning_code_image" db:"warning_code_image"`
	LabelImage       string `json:"label_image" db:"label_image"`
	ManualImage      string `json:"manual_image" db:"manual_image"`
	OtherImage       string `json:"other_image" db:"other_image"`
	CreatorName      string `json:"creator_name" db:"creator_name"`
}

// Task 进行中的发货任务
type Task struct {
	ID string `json:"id" db:"id"`
	TaskFields
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

// History 已完成或移除的任务存档
type History struct {
	ID string `json:"id" db:"id"`
	TaskFields
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
}

// ArchiveOf 根据任务生成存档记录，沿用任务ID
func ArchiveOf(task Task, completedAt time.Time) History {
	if task.CompletedAt != nil && !task.CompletedAt.IsZero() {
		completedAt = *task.CompletedAt
	}
	return History{
		ID:          task.ID,
		TaskFields:  task.TaskFields,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		CompletedAt: completedAt,
	}
}

// CreateTaskDTO 创建任务DTO
type CreateTaskDTO struct {
	TaskNumber       string     `json:"task_number" binding:"required"`
	Status           string     `json:"status"`
	Items            Items      `json:"items"`
	BodyCodeImage    string     `json:"body_code_image"`
	BarcodeImage     string     `json:"barcode_image"`
	WarningCodeImage string     `json:"warning_code_image"`
	LabelImage       string     `json:"label_image"`
	ManualImage      string     `json:"manual_image"`
	OtherImage       string     `json:"other_image"`
	CreatorName      string     `json:"creator_name"`
	CompletedAt      *time.Time `json:"completed_at"`
}

// Fields 转换为任务字段，状态默认为pending
func (d CreateTaskDTO) Fields() TaskFields {
	status := d.Status
	if status == "" {
		status = TaskStatusPending
	}
	return TaskFields{
		TaskNumber:       d.TaskNumber,
		Status:           status,
		Items:            d.Items,
		BodyCodeImage:    d.BodyCodeImage,
		BarcodeImage:     d.BarcodeImage,
		WarningCodeImage: d.WarningCodeImage,
		LabelImage:       d.LabelImage,
		ManualImage:      d.ManualImage,
		OtherImage:       d.OtherImage,
		CreatorName:      d.CreatorName,
	}
}

// UpdateTaskDTO 更新任务DTO，仅非nil字段会被更新
type UpdateTaskDTO struct {
	TaskNumber       *string    `json:"task_number"`
	Status           *string    `json:"status"`
	Items            *Items     `json:"items"`
	BodyCodeImage    *string    `json:"body_code_image"`
	BarcodeImage     *string    `json:"barcode_image"`
	WarningCodeImage *string    `json:"warning_code_image"`
	LabelImage       *string    `json:"label_image"`
	ManualImage      *string    `json:"manual_image"`
	OtherImage       *string    `json:"other_image"`
	CreatorName      *string    `json:"creator_name"`
	CompletedAt      *time.Time `json:"completed_at"`
}

// Fields 返回待更新的列及值，顺序固定
func (d UpdateTaskDTO) Fields() []Field {
	var fields []Field
	addString := func(column string, v *string) {
		if v != nil {
			fields = append(fields, Field{column, *v})
		}
	}

	addString("task_number", d.TaskNumber)
	addString("status", d.Status)
	if d.Items != nil {
		fields = append(fields, Field{"items", *d.Items})
	}
	addString("body_code_image", d.BodyCodeImage)
	addString("barcode_image", d.BarcodeImage)
	addString("warning_code_image", d.WarningCodeImage)
	addString("label_image", d.LabelImage)
	addString("manual_image", d.ManualImage)
	addString("other_image", d.OtherImage)
	addString("creator_name", d.CreatorName)
	if d.CompletedAt != nil {
		fields = append(fields, Field{"completed_at", d.CompletedAt.UTC()})
	}
	return fields
}

// Apply 将DTO中的字段写入任务
func (d UpdateTaskDTO) Apply(t *Task) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}

	set(&t.TaskNumber, d.TaskNumber)
	set(&t.Status, d.Status)
	if d.Items != nil {
		t.Items = *d.Items
	}
	set(&t.BodyCodeImage, d.BodyCodeImage)
	set(&t.BarcodeImage, d.BarcodeImage)
	set(&t.WarningCodeImage, d.WarningCodeImage)
	set(&t.LabelImage, d.LabelImage)
	set(&t.ManualImage, d.ManualImage)
	set(&t.OtherImage, d.OtherImage)
	set(&t.CreatorName, d.CreatorName)
	if d.CompletedAt != nil {
		completed := d.CompletedAt.UTC()
		t.CompletedAt = &completed
	}
}

// IsEmpty 是否没有任何待更新字段
func (d UpdateTaskDTO) IsEmpty() bool {
	return len(d.Fields()) == 0
}

// CreateHistoryDTO 直接创建历史记录DTO
type CreateHistoryDTO struct {
	CreateTaskDTO
}

// ShipTaskDTO 发货请求
type ShipTaskDTO struct {
	Status string `json:"status"`
}
