package models

import "time"

// StoreStatus is a single-row table: the "are we taking orders" switch the
// storefront reads and the back office flips.
type StoreStatus struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Open      bool      `gorm:"default:true" json:"open"`
	Message   string    `json:"message"` // Shown to customers while closed
	UpdatedAt time.Time `json:"updated_at"`
}
