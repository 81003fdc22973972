// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	UserID           uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Items            []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	Total            float64     `json:"total" gorm:"type:decimal(10,2);not null"`
	Currency         string      `json:"currency" gorm:"size:3;not null;default:'usd'"`
	Status           OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentReference string      `json:"payment_reference" gorm:"size:255;index"`
	ProcessedAt      *time.Time  `json:"processed_at"`
	CancelledAt      *time.Time  `json:"cancelled_at"`
	RefundedAt       *time.Time  `json:"refunded_at"`
	RefundReason     string      `json:"refund_reason,omitempty" gorm:"type:text"`
	ShippingAddress  JSONB       `json:"shipping_address,omitempty" gorm:"type:jsonb"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// OrderItem snapshots the purchased line at checkout time; later catalog
// edits do not rewrite order history.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	UnitPrice float64   `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Size      string    `json:"size,omitempty" gorm:"size:20"`
	ImageURL  string    `json:"image_url,omitempty" gorm:"size:500"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
