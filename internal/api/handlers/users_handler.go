package handlers

import (
	"net/http"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/services"

	"github.com/gin-gonic/gin"
)

// UsersHandler 用户管理，仅管理员可用
type UsersHandler struct {
	service *services.UserService
	log     logger.Logger
}

// NewUsersHandler 创建用户处理器
func NewUsersHandler(service *services.UserService, log logger.Logger) *UsersHandler {
	return &UsersHandler{service: service, log: log}
}

// FindAll 获取用户列表
func (h *UsersHandler) FindAll(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "用户", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Create 创建用户
func (h *UsersHandler) Create(c *gin.Context) {
	var dto entities.CreateUserDTO
	if !bindJSON(c, &dto) {
		return
	}

	user, err := h.service.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, h.log, "用户", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
