package services

import (
	"context"
	"errors"
	"strings"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// UserService 用户服务
type UserService struct {
	repo repositories.UserRepository
	log  logger.Logger
	cost int
}

// NewUserService 创建用户服务
func NewUserService(repo repositories.UserRepository, log logger.Logger) *UserService {
	return &UserService{repo: repo, log: log, cost: bcrypt.DefaultCost}
}

// List 获取全部用户
func (s *UserService) List(ctx context.Context) ([]entities.User, error) {
	return s.repo.List(ctx)
}

// Get 通过ID获取用户
func (s *UserService) Get(ctx context.Context, id string) (entities.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建用户，邮箱统一转为小写
func (s *UserService) Create(ctx context.Context, dto entities.CreateUserDTO) (entities.User, error) {
	if !entities.ValidRole(dto.Role) {
		return entities.User{}, invalid("role", "角色必须是admin、sales或warehouse")
	}
	if len(dto.Password) < 6 {
		return entities.User{}, invalid("password", "密码至少6位")
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return entities.User{}, err
	}

	user, err := s.repo.Create(ctx, entities.User{
		Email:       normalizeEmail(dto.Email),
		Password:    hash,
		Name:        dto.Name,
		Role:        dto.Role,
		CompanyName: dto.CompanyName,
		Currency:    dto.Currency,
		Language:    dto.Language,
		Settings:    dto.Settings,
		IsActive:    true,
	})
	if err != nil {
		return entities.User{}, err
	}

	s.log.InfoContext(ctx, "创建用户: id=%s, role=%s", user.ID, user.Role)
	return user, nil
}

// Authenticate 校验邮箱密码，成功后记录登录时间
func (s *UserService) Authenticate(ctx context.Context, email, password string) (entities.User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return entities.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return entities.User{}, err
	}

	if !s.VerifyPassword(user.Password, password) {
		return entities.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return entities.User{}, ErrInactiveUser
	}

	now := entities.Now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.WithError(err).WarnContext(ctx, "更新登录时间失败: id=%s", user.ID)
	} else {
		user.LastLogin = &now
	}
	return user, nil
}

// UpdateProfile 更新当前用户的资料
func (s *UserService) UpdateProfile(ctx context.Context, id string, dto entities.UpdateProfileDTO) (entities.User, error) {
	return s.repo.UpdateProfile(ctx, id, dto)
}

// VerifyPassword 验证密码
func (s *UserService) VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// HashPassword 哈希密码
func (s *UserService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	return string(bytes), err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
