// internal/models/address.go
package models

import (
	"github.com/google/uuid"
)

type Address struct {
	BaseModel
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Label        string    `json:"label" gorm:"size:50"`
	Street       string    `json:"street" gorm:"size:255;not null"`
	City         string    `json:"city" gorm:"size:100;not null"`
	State        string    `json:"state" gorm:"size:100"`
	Zip          string    `json:"zip" gorm:"size:20;not null"`
	Phone        string    `json:"phone" gorm:"size:30"`
	Instructions string    `json:"instructions,omitempty" gorm:"type:text"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID"`
}
