package models

import "time"

// Purchase is an append-only ledger row recording that one key was issued
// to one user. KeyID is unique: a key belongs to at most one purchase, ever.
type Purchase struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	ProductID     uint      `gorm:"not null;index" json:"product_id"`
	KeyID         uint      `gorm:"not null;uniqueIndex" json:"key_id"`
	TransactionID string    `gorm:"size:100;not null" json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`

	// Relations
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Key     *Key     `gorm:"foreignKey:KeyID" json:"key,omitempty"`
}

func (Purchase) TableName() string {
	return "purchases"
}
