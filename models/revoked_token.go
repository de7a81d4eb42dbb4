package models

import "time"

// RevokedToken blacklists an access-token jti until it would have expired
// anyway. Only consulted when Redis is not configured.
type RevokedToken struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	RevokedAt time.Time `json:"revoked_at"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
