package models

import "time"

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"cart_id"`
	SessionID string     `gorm:"uniqueIndex" json:"session_id"`                 // Enforces ONE cart per storefront session
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"` // Cascade delete items if cart is deleted
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	CartID         uint   `gorm:"index" json:"cart_id"` // Faster queries
	MenuItemID     uint   `json:"menu_item_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	// Chosen spice level; part of the merge key, so two customizations of
	// the same dish stay separate lines.
	SpiceLevel string    `json:"spice_level"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

// LineTotalCents is the line's contribution to the cart subtotal.
func (i CartItem) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}
