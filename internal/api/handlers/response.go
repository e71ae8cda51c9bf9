package handlers

import (
	"errors"
	"net/http"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError 将业务错误转换为HTTP响应，未知错误只在服务端记录原因
func respondError(c *gin.Context, log logger.Logger, entity string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": entity + "不存在"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, entities.ErrInvalidItems):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": repositories.ErrEmailExists.Error()})
	case errors.Is(err, repositories.ErrArchiveIncomplete):
		log.WithError(err).ErrorContext(c.Request.Context(), "任务归档未完成")
		c.JSON(http.StatusInternalServerError, gin.H{"error": repositories.ErrArchiveIncomplete.Error(), "code": "archive_incomplete"})
	default:
		log.WithError(err).ErrorContext(c.Request.Context(), "%s %s 处理失败", c.Request.Method, c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器错误"})
	}
}

// bindJSON 解析请求体，失败时返回400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求数据无效: " + err.Error()})
		return false
	}
	return true
}
