package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, product_code, product_name, product_supplier, quantity,
	purchase_price, sale_price, image, created_at, updated_at`

// ProductRepository 商品仓库
type ProductRepository struct {
	db *sqlx.DB
}

// List 获取全部商品
func (r *ProductRepository) List(ctx context.Context) ([]entities.Product, error) {
	products := []entities.Product{}
	query := "SELECT " + productColumns + " FROM products ORDER BY created_at DESC"
	if err := sqlx.SelectContext(ctx, r.db, &products, query); err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	return products, nil
}

// FindByID 通过ID查找商品
func (r *ProductRepository) FindByID(ctx context.Context, id string) (entities.Product, error) {
	return findProduct(ctx, r.db, "id", id)
}

func findProduct(ctx context.Context, q sqlx.ExtContext, column, value string) (entities.Product, error) {
	var product entities.Product
	query := q.Rebind("SELECT " + productColumns + " FROM products WHERE " + column + " = ? LIMIT 1")
	if err := sqlx.GetContext(ctx, q, &product, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.Product{}, repositories.ErrNotFound
		}
		return entities.Product{}, fmt.Errorf("查询商品失败: %w", err)
	}
	return product, nil
}

// Create 创建商品
func (r *ProductRepository) Create(ctx context.Context, product entities.Product) (entities.Product, error) {
	entities.StampNew(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	query := `INSERT INTO products (` + productColumns + `)
		VALUES (:id, :product_code, :product_name, :product_supplier, :quantity,
			:purchase_price, :sale_price, :image, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, product); err != nil {
		return entities.Product{}, fmt.Errorf("创建商品失败: %w", err)
	}
	return product, nil
}

// Update 更新商品
func (r *ProductRepository) Update(ctx context.Context, id string, dto entities.UpdateProductDTO) (entities.Product, error) {
	fields := dto.Fields()
	if len(fields) == 0 {
		return r.FindByID(ctx, id)
	}

	now := entities.Now()
	query, args := buildUpdate("products", fields, &now, id)
	n, err := execAffected(ctx, r.db, query, args...)
	if err != nil {
		return entities.Product{}, fmt.Errorf("更新商品失败: %w", err)
	}
	if n == 0 {
		return entities.Product{}, repositories.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete 删除商品
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	n, err := execAffected(ctx, r.db, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("删除商品失败: %w", err)
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Count 商品总数
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "products")
}
