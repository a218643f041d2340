package orderControllers

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/models"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderCancelled = errors.New("order is cancelled")
)

// ConfirmOrder is the single transition that moves an order out of pending
// into confirmed. The webhook handler, the reconciler and the manual
// confirmation endpoint all go through here, so at-least-once delivery and
// concurrent retries converge on exactly one confirmation.
//
// The check-and-set is one UPDATE guarded on status = 'pending'; whoever
// gets RowsAffected == 1 performed the transition and is the only caller
// allowed to dispatch notifications. Everyone else sees a no-op.
//
// paymentIntentID and method are recorded only when non-empty, so a webhook
// retry cannot blank out fields set by the first delivery.
func ConfirmOrder(db *gorm.DB, orderID uint, paymentIntentID string, method models.PaymentMethod) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":         models.OrderStatusConfirmed,
		"payment_status": models.PaymentStatusSucceeded,
		"confirmed_at":   now,
		"updated_at":     now,
	}
	if paymentIntentID != "" {
		updates["payment_intent_id"] = paymentIntentID
	}
	if method != "" {
		updates["payment_method"] = method
	}

	result := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	// Lost the race, or the order already left pending. Re-confirming a
	// confirmed order is a no-op; a cancelled one needs an operator.
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrOrderNotFound
		}
		return false, err
	}
	if order.Status == models.OrderStatusCancelled {
		return false, ErrOrderCancelled
	}
	return false, nil
}

// CancelPendingOrder moves a pending order to cancelled with the given
// payment outcome. Same guarded UPDATE as ConfirmOrder, so a webhook
// confirming the order and a reconciler expiring it cannot both win.
func CancelPendingOrder(db *gorm.DB, orderID uint, paymentStatus models.PaymentStatus) (bool, error) {
	now := time.Now()
	result := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":         models.OrderStatusCancelled,
			"payment_status": paymentStatus,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AttachCheckoutSession stores the processor session id on a freshly
// created order. Guarded so an already-set session id is never replaced.
func AttachCheckoutSession(db *gorm.DB, orderID uint, checkoutSessionID string) error {
	result := db.Model(&models.Order{}).
		Where("id = ? AND checkout_session_id = ''", orderID).
		Updates(map[string]interface{}{
			"checkout_session_id": checkoutSessionID,
			"payment_status":      models.PaymentStatusProcessing,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("order already has a checkout session")
	}
	return nil
}
