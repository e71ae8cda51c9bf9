package handlers

import (
	"errors"
	"io"
	"net/http"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/middleware"
	"fulfillment-service/internal/services"

	"github.com/gin-gonic/gin"
)

// TasksHandler 处理发货任务相关的API请求
type TasksHandler struct {
	service *services.TaskService
	log     logger.Logger
}

// NewTasksHandler 创建任务处理器
func NewTasksHandler(service *services.TaskService, log logger.Logger) *TasksHandler {
	return &TasksHandler{service: service, log: log}
}

// FindAll 获取任务列表
func (h *TasksHandler) FindAll(c *gin.Context) {
	tasks, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "任务", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// FindOne 获取单个任务
func (h *TasksHandler) FindOne(c *gin.Context) {
	task, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "任务", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Create 创建任务
func (h *TasksHandler) Create(c *gin.Context) {
	var dto entities.CreateTaskDTO
	if !bindJSON(c, &dto) {
		return
	}
	if dto.CreatorName == "" {
		dto.CreatorName = c.GetString(middleware.ContextUsername)
	}

	task, err := h.service.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, h.log, "任务", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Update 更新任务
func (h *TasksHandler) Update(c *gin.Context) {
	var dto entities.UpdateTaskDTO
	if !bindJSON(c, &dto) {
		return
	}

	task, err := h.service.Update(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		respondError(c, h.log, "任务", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Ship 发货，请求体可选
func (h *TasksHandler) Ship(c *gin.Context) {
	var dto entities.ShipTaskDTO
	if err := c.ShouldBindJSON(&dto); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求数据无效: " + err.Error()})
		return
	}

	task, err := h.service.Ship(c.Request.Context(), c.Param("id"), dto.Status)
	if err != nil {
		respondError(c, h.log, "任务", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Archive 删除任务并写入历史记录
func (h *TasksHandler) Archive(c *gin.Context) {
	history, err := h.service.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "任务", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "任务已归档", "history": history})
}
