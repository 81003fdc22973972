// internal/models/cart.go
package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

// CartItem is one line of a cart. Name, price and image are snapshots taken
// when the line was added; reconciliation refreshes them against the catalog.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"image_url,omitempty"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
}

// CartItems is stored as a single JSONB column so the cart row stays the
// unit of read/write, matching the one-document-per-user cart the
// storefront expects.
type CartItems []CartItem

func (c CartItems) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal(CartItems{})
	}
	return json.Marshal(c)
}

func (c *CartItems) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, c)
}

type Cart struct {
	BaseModel
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Items  CartItems `json:"items" gorm:"type:jsonb"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (c CartItems) Total() float64 {
	var total float64
	for _, item := range c {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (c CartItems) ItemCount() int {
	var count int
	for _, item := range c {
		count += item.Quantity
	}
	return count
}

func (c *Cart) Total() float64 {
	return c.Items.Total()
}

func (c *Cart) ItemCount() int {
	return c.Items.ItemCount()
}
