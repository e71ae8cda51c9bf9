package entities

import (
	"time"
)

// 用户角色
const (
	RoleAdmin     = "admin"
	RoleSales     = "sales"
	RoleWarehouse = "warehouse"
)

// ValidRole 角色是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSales, RoleWarehouse:
		return true
	}
	return false
}

// User 用户实体
type User struct {
	ID          string     `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Password    string     `json:"-" db:"password_hash"` // 密码不返回给客户端
	Name        string     `json:"name" db:"name"`
	Role        string     `json:"role" db:"role"`
	CompanyName string     `json:"company_name" db:"company_name"`
	Currency    string     `json:"currency" db:"currency"`
	Language    string     `json:"language" db:"language"`
	Settings    Settings   `json:"settings" db:"settings"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	LastLogin   *time.Time `json:"last_login" db:"last_login"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateUserDTO 创建用户DTO
type CreateUserDTO struct {
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=6"`
	Name        string   `json:"name" binding:"required"`
	Role        string   `json:"role" binding:"required"`
	CompanyName string   `json:"company_name"`
	Currency    string   `json:"currency"`
	Language    string   `json:"language"`
	Settings    Settings `json:"settings"`
}

// UpdateProfileDTO 用户可自行修改的资料
type UpdateProfileDTO struct {
	Name        *string   `json:"name"`
	CompanyName *string   `json:"company_name"`
	Currency    *string   `json:"currency"`
	Language    *string   `json:"language"`
	Settings    *Settings `json:"settings"`
}

// Fields 返回待更新的列及值
func (d UpdateProfileDTO) Fields() []Field {
	var fields []Field
	if d.Name != nil {
		fields = append(fields, Field{"name", *d.Name})
	}
	if d.CompanyName != nil {
		fields = append(fields, Field{"company_name", *d.CompanyName})
	}
	if d.Currency != nil {
		fields = append(fields, Field{"currency", *d.Currency})
	}
	if d.Language != nil {
		fields = append(fields, Field{"language", *d.Language})
	}
	if d.Settings != nil {
		fields = append(fields, Field{"settings", *d.Settings})
	}
	return fields
}

// Apply 将DTO写入用户
func (d UpdateProfileDTO) Apply(u *User) {
	if d.Name != nil {
		u.Name = *d.Name
	}
	if d.CompanyName != nil {
		u.CompanyName = *d.CompanyName
	}
	if d.Currency != nil {
		u.Currency = *d.Currency
	}
	if d.Language != nil {
		u.Language = *d.Language
	}
	if d.Settings != nil {
		u.Settings = *d.Settings
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
