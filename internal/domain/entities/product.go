package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品
type Product struct {
	ID              string          `json:"id" db:"id"`
	ProductCode     string          `json:"product_code" db:"product_code"`
	ProductName     string          `json:"product_name" db:"product_name"`
	ProductSupplier string          `json:"product_supplier" db:"product_supplier"`
	Quantity        int             `json:"quantity" db:"quantity"`
	PurchasePrice   decimal.Decimal `json:"purchase_price" db:"purchase_price"`
	SalePrice       decimal.Decimal `json:"sale_price" db:"sale_price"`
	Image           string          `json:"image" db:"image"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateProductDTO 创建商品DTO
type CreateProductDTO struct {
	ProductCode     string          `json:"product_code" binding:"required"`
	ProductName     string          `json:"product_name"`
	ProductSupplier string          `json:"product_supplier"`
	Quantity        int             `json:"quantity"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	Image           string          `json:"image"`
}

// UpdateProductDTO 更新商品DTO，仅非nil字段会被更新
type UpdateProductDTO struct {
	ProductCode     *string          `json:"product_code"`
	ProductName     *string          `json:"product_name"`
	ProductSupplier *string          `json:"product_supplier"`
	Quantity        *int             `json:"quantity"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price"`
	SalePrice       *decimal.Decimal `json:"sale_price"`
	Image           *string          `json:"image"`
}

// IsEmpty 是否没有任何待更新字段
func (d UpdateProductDTO) IsEmpty() bool {
	return d.ProductCode == nil && d.ProductName == nil && d.ProductSupplier == nil &&
		d.Quantity == nil && d.PurchasePrice == nil && d.SalePrice == nil && d.Image == nil
}

// Apply 将DTO中的字段写入商品
func (d UpdateProductDTO) Apply(p *Product) {
	if d.ProductCode != nil {
		p.ProductCode = *d.ProductCode
	}
	if d.ProductName != nil {
		p.ProductName = *d.ProductName
	}
	if d.ProductSupplier != nil {
		p.ProductSupplier = *d.ProductSupplier
	}
	if d.Quantity != nil {
		p.Quantity = *d.Quantity
	}
	if d.PurchasePrice != nil {
		p.PurchasePrice = *d.PurchasePrice
	}
	if d.SalePrice != nil {
		p.SalePrice = *d.SalePrice
	}
	if d.Image != nil {
		p.Image = *d.Image
	}
}

// Fields 返回待更新的列及值，顺序固定
func (d UpdateProductDTO) Fields() []Field {
	var fields []Field
	if d.ProductCode != nil {
		fields = append(fields, Field{"product_code", *d.ProductCode})
	}
	if d.ProductName != nil {
		fields = append(fields, Field{"product_name", *d.ProductName})
	}
	if d.ProductSupplier != nil {
		fields = append(fields, Field{"product_supplier", *d.ProductSupplier})
	}
	if d.Quantity != nil {
		fields = append(fields, Field{"quantity", *d.Quantity})
	}
	if d.PurchasePrice != nil {
		fields = append(fields, Field{"purchase_price", *d.PurchasePrice})
	}
	if d.SalePrice != nil {
		fields = append(fields, Field{"sale_price", *d.SalePrice})
	}
	if d.Image != nil {
		fields = append(fields, Field{"image", *d.Image})
	}
	return fields
}

// Field 一个待更新的列
type Field struct {
	Column string
	Value  interface{}
}
