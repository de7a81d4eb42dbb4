package utils

import "github.com/google/uuid"

// GenerateTransactionID returns the opaque external reference recorded on a
// purchase row.
func GenerateTransactionID() string {
	return uuid.NewString()
}
