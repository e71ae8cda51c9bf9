package handlers

import (
	"fmt"
	"net/http"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/services"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HistoryHandler 处理历史记录相关的API请求
type HistoryHandler struct {
	service *services.HistoryService
	log     logger.Logger
}

// NewHistoryHandler 创建历史记录处理器
func NewHistoryHandler(service *services.HistoryService, log logger.Logger) *HistoryHandler {
	return &HistoryHandler{service: service, log: log}
}

// FindAll 获取历史记录列表
func (h *HistoryHandler) FindAll(c *gin.Context) {
	history, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "历史记录", err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// Create 直接创建历史记录
func (h *HistoryHandler) Create(c *gin.Context) {
	var dto entities.CreateHistoryDTO
	if !bindJSON(c, &dto) {
		return
	}

	history, err := h.service.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, h.log, "历史记录", err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// Export 导出历史记录为Excel文件
func (h *HistoryHandler) Export(c *gin.Context) {
	data, err := h.service.Export(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "历史记录", err)
		return
	}

	filename := fmt.Sprintf("history-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
