// internal/models/product.go
package models

import (
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	Name          string         `json:"name" gorm:"size:255;not null"`
	Description   string         `json:"description" gorm:"type:text"`
	Category      string         `json:"category" gorm:"size:100;index"`
	Size          string         `json:"size,omitempty" gorm:"size:20"`
	Price         float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	StockQuantity int            `json:"stock_quantity" gorm:"not null;default:0;check:stock_quantity >= 0"`
	Images        pq.StringArray `json:"images" gorm:"type:text[]"`
	Status        ProductStatus  `json:"status" gorm:"type:varchar(20);default:'active';index"`
	SalesCount    int64          `json:"sales_count" gorm:"default:0"`
}

func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}
