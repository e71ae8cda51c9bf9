package handlers

import (
	"net/http"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/middleware"
	"fulfillment-service/internal/services"

	"github.com/gin-gonic/gin"
)

// ActivitiesHandler 处理操作日志相关的API请求
type ActivitiesHandler struct {
	service *services.ActivityService
	log     logger.Logger
}

// NewActivitiesHandler 创建操作日志处理器
func NewActivitiesHandler(service *services.ActivityService, log logger.Logger) *ActivitiesHandler {
	return &ActivitiesHandler{service: service, log: log}
}

// FindAll 获取操作日志列表
func (h *ActivitiesHandler) FindAll(c *gin.Context) {
	activities, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "操作日志", err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// Create 记录操作日志
func (h *ActivitiesHandler) Create(c *gin.Context) {
	var dto entities.CreateActivityDTO
	if !bindJSON(c, &dto) {
		return
	}

	activity, err := h.service.Create(c.Request.Context(), dto, c.GetString(middleware.ContextUsername))
	if err != nil {
		respondError(c, h.log, "操作日志", err)
		return
	}
	c.JSON(http.StatusOK, activity)
}
