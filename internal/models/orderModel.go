package models

import "time"

// OrderRecord journals a live order submitted by the risk controller.
type OrderRecord struct {
	ID         uint    `gorm:"primaryKey"`
	OrderID    string  `gorm:"index;not null"`
	MarketSlug string  `gorm:"index;not null"`
	TokenID    string  `gorm:"not null"`
	Side       string  `gorm:"not null"`
	Price      float64 `gorm:"type:decimal(20,8);not null"`
	Size       float64 `gorm:"type:decimal(20,8);not null"`
	Edge       float64 `gorm:"type:decimal(20,8)"`
	Status     string  `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const (
	OrderStatusOpen    = "open"
	OrderStatusSettled = "settled"
)

// TableName sets the table name for OrderRecord.
func (OrderRecord) TableName() string {
	return "orders"
}
