package services

import (
	"context"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"
)

// ProductService 商品服务
type ProductService struct {
	repo repositories.ProductRepository
	log  logger.Logger
}

// NewProductService 创建商品服务
func NewProductService(repo repositories.ProductRepository, log logger.Logger) *ProductService {
	return &ProductService{repo: repo, log: log}
}

// List 获取全部商品
func (s *ProductService) List(ctx context.Context) ([]entities.Product, error) {
	return s.repo.List(ctx)
}

// Create 创建商品
func (s *ProductService) Create(ctx context.Context, dto entities.CreateProductDTO) (entities.Product, error) {
	if dto.Quantity < 0 {
		return entities.Product{}, invalid("quantity", "库存不能为负数")
	}

	product, err := s.repo.Create(ctx, entities.Product{
		ProductCode:     dto.ProductCode,
		ProductName:     dto.ProductName,
		ProductSupplier: dto.ProductSupplier,
		Quantity:        dto.Quantity,
		PurchasePrice:   dto.PurchasePrice,
		SalePrice:       dto.SalePrice,
		Image:           dto.Image,
	})
	if err != nil {
		return entities.Product{}, err
	}

	s.log.InfoContext(ctx, "创建商品: id=%s, code=%s", product.ID, product.ProductCode)
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(ctx context.Context, id string, dto entities.UpdateProductDTO) (entities.Product, error) {
	if dto.Quantity != nil && *dto.Quantity < 0 {
		return entities.Product{}, invalid("quantity", "库存不能为负数")
	}
	return s.repo.Update(ctx, id, dto)
}

// Delete 删除商品
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "删除商品: id=%s", id)
	return nil
}
