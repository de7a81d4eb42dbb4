package models

import "time"

// Key is a single-use activation code belonging to one product. Used flips
// false -> true exactly once, when the key is issued through a purchase.
type Key struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index:idx_keys_product_used" json:"product_id"`
	Code      string    `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Used      bool      `gorm:"not null;default:false;index:idx_keys_product_used" json:"used"`
	CreatedAt time.Time `json:"-"`

	// Relations
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Key) TableName() string {
	return "license_keys"
}
