package handlers

import (
	"net/http"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/services"

	"github.com/gin-gonic/gin"
)

// ProductsHandler 处理商品相关的API请求
type ProductsHandler struct {
	service *services.ProductService
	log     logger.Logger
}

// NewProductsHandler 创建商品处理器
func NewProductsHandler(service *services.ProductService, log logger.Logger) *ProductsHandler {
	return &ProductsHandler{service: service, log: log}
}

// FindAll 获取商品列表
func (h *ProductsHandler) FindAll(c *gin.Context) {
	products, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "商品", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Create 创建商品
func (h *ProductsHandler) Create(c *gin.Context) {
	var dto entities.CreateProductDTO
	if !bindJSON(c, &dto) {
		return
	}

	product, err := h.service.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, h.log, "商品", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Update 更新商品
func (h *ProductsHandler) Update(c *gin.Context) {
	var dto entities.UpdateProductDTO
	if !bindJSON(c, &dto) {
		return
	}

	product, err := h.service.Update(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		respondError(c, h.log, "商品", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Remove 删除商品
func (h *ProductsHandler) Remove(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, "商品", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "商品已删除"})
}
