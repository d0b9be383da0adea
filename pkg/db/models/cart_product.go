package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartProduct is a product row sitting in the shopper's cart.
type CartProduct struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name       string          `gorm:"column:name;not null"`
	MSRP       decimal.Decimal `gorm:"column:msrp;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null;default:1"`
	PictureURL string          `gorm:"column:picture_url"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartProduct) TableName() string { return "cart_products" }
