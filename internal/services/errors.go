package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials 邮箱或密码不正确
	ErrInvalidCredentials = errors.New("邮箱或密码不正确")
	// ErrInactiveUser 账户已停用
	ErrInactiveUser = errors.New("账户已停用")
)

// ValidationError 请求数据不合法
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
