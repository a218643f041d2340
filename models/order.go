package models

import "time"

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	// Fulfillment statuses
	OrderStatusPending   OrderStatus = "pending"    // Order placed, awaiting payment confirmation
	OrderStatusConfirmed OrderStatus = "confirmed"  // Payment confirmed, kitchen notified
	OrderStatusPreparing OrderStatus = "preparing"  // In the kitchen
	OrderStatusReady     OrderStatus = "ready"      // Packed and ready for the courier
	OrderStatusInTransit OrderStatus = "in_transit" // Out for delivery
	OrderStatusDelivered OrderStatus = "delivered"  // Customer received the order
	OrderStatusCancelled OrderStatus = "cancelled"  // Abandoned or cancelled before delivery

	// Payment statuses (tracked independently of fulfillment)
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"

	// Payment methods. Card goes through the hosted checkout processor;
	// manual means the operator verifies payment out of band (WhatsApp).
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodManual PaymentMethod = "manual"
)

type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null" json:"order_number"`

	// Customer contact, snapshotted at order time. Not a reference to a
	// mutable profile.
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	Address DeliveryAddress `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	// Derived once at creation and stored; never recomputed from the menu.
	SubtotalCents    int64 `json:"subtotal_cents"`
	DeliveryFeeCents int64 `json:"delivery_fee_cents"`
	TotalCents       int64 `json:"total_cents"`

	Status        OrderStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"type:VARCHAR(20)" json:"payment_method"`

	// Processor references, stored once known. The session id is the join
	// key for webhook delivery and reconciliation; it is never overwritten
	// once set, and the partial unique index stops two orders from ever
	// claiming one session. Manual and sessionless orders share "".
	CheckoutSessionID string `gorm:"uniqueIndex:uidx_orders_checkout_session,where:checkout_session_id <> ''" json:"checkout_session_id,omitempty"`
	PaymentIntentID   string `json:"payment_intent_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"` // Set exactly once
}

// DeliveryAddress is embedded in Order, snapshotted at order time.
type DeliveryAddress struct {
	Street     string `json:"street"`
	Apartment  string `json:"apartment"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderItem struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	OrderID        uint   `gorm:"index" json:"order_id"`
	MenuItemID     uint   `json:"menu_item_id"`
	Name           string `json:"name"`
	SpiceLevel     string `json:"spice_level,omitempty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}
