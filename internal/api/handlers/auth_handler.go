package handlers

import (
	"errors"
	"net/http"

	"fulfillment-service/internal/auth"
	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/middleware"
	"fulfillment-service/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler 处理认证相关的API请求
type AuthHandler struct {
	jwtService  *auth.JWTService
	userService *services.UserService
	log         logger.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(jwtService *auth.JWTService, userService *services.UserService, log logger.Logger) *AuthHandler {
	return &AuthHandler{jwtService: jwtService, userService: userService, log: log}
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string        `json:"token"`
	User  entities.User `json:"user"`
}

// Login 处理用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req entities.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrInactiveUser) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, h.log, "用户", err)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		h.log.WithError(err).ErrorContext(c.Request.Context(), "生成令牌失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成令牌失败"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: user})
}

// GetCurrentUser 获取当前用户信息
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.log, "用户", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateCurrentUser 更新当前用户资料
func (h *AuthHandler) UpdateCurrentUser(c *gin.Context) {
	var dto entities.UpdateProfileDTO
	if !bindJSON(c, &dto) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), c.GetString(middleware.ContextUserID), dto)
	if err != nil {
		respondError(c, h.log, "用户", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
