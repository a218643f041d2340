package paymentControllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/config"
	"github.com/quantumclimb/curryhouse-api/controllers/notify"
	orderControllers "github.com/quantumclimb/curryhouse-api/controllers/order"
	"github.com/quantumclimb/curryhouse-api/models"
)

// SessionFetcher is the slice of the processor client reconciliation needs.
type SessionFetcher interface {
	GetCheckoutSession(sessionID string) (*CheckoutSession, error)
}

// ReconcileOrder pulls the processor's view of a pending order's checkout
// session and applies the outcome locally. It reuses the same guarded
// transition as the webhook handler, so running both at once (or in any
// order) converges on a single confirmation with one notification.
func ReconcileOrder(db *gorm.DB, processor SessionFetcher, notifier notify.Notifier, order models.Order) (string, error) {
	if order.Status != models.OrderStatusPending {
		return fmt.Sprintf("order is %s, nothing to reconcile", order.Status), nil
	}
	if order.CheckoutSessionID == "" {
		// Creation-time processor failure left this order without a
		// session. There is nothing to reconcile against; the operator
		// decides via the cancel endpoint.
		return "order has no checkout session, operator decision required", nil
	}

	session, err := processor.GetCheckoutSession(order.CheckoutSessionID)
	if err != nil {
		return "", err
	}

	if session.PaymentStatus == SessionPaymentPaid {
		confirmed, err := orderControllers.ConfirmOrder(db, order.ID, session.PaymentIntentID, "")
		if err != nil && !errors.Is(err, orderControllers.ErrOrderCancelled) {
			return "", err
		}
		if confirmed {
			log.Printf("✅ Order %s confirmed via reconciliation (session %s)", order.OrderNumber, order.CheckoutSessionID)
			var full models.Order
			if err := db.Preload("Items").First(&full, order.ID).Error; err == nil {
				notifier.OrderConfirmed(full)
				orderControllers.BroadcastOrderUpdate(full)
			}
			return "confirmed", nil
		}
		return "already handled", nil
	}

	if session.Status == SessionStatusExpired {
		cancelled, err := orderControllers.CancelPendingOrder(db, order.ID, models.PaymentStatusFailed)
		if err != nil {
			return "", err
		}
		if cancelled {
			log.Printf("🗑️ Order %s cancelled via reconciliation, session expired", order.OrderNumber)
			return "cancelled", nil
		}
		return "already handled", nil
	}

	return "still awaiting payment", nil
}

// POST /admin/orders/:orderID/reconcile
func ReconcileHandler(db *gorm.DB, processor SessionFetcher, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("orderID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		var order models.Order
		if err := db.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		outcome, err := ReconcileOrder(db, processor, notifier, order)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": outcome})
	}
}

// StartReconciler sweeps stuck pending orders on an interval, so a lost
// webhook bounds how long a paid order can sit unnoticed. Runs as a
// goroutine from main.
func StartReconciler(db *gorm.DB, processor SessionFetcher, notifier notify.Notifier, cfg *config.Config) {
	log.Printf("⏳ Reconciler running every %s for pending orders older than %s", cfg.Reconcile.Interval, cfg.Reconcile.Grace)
	for {
		time.Sleep(cfg.Reconcile.Interval)
		SweepPendingOrders(db, processor, notifier, cfg.Reconcile.Grace)
	}
}

// SweepPendingOrders reconciles every pending order older than grace.
func SweepPendingOrders(db *gorm.DB, processor SessionFetcher, notifier notify.Notifier, grace time.Duration) {
	cutoff := time.Now().Add(-grace)

	var orders []models.Order
	if err := db.
		Where("status = ? AND created_at < ?", models.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		log.Printf("❌ Reconciler failed to list pending orders: %v", err)
		return
	}

	for _, order := range orders {
		outcome, err := ReconcileOrder(db, processor, notifier, order)
		if err != nil {
			log.Printf("❌ Reconciliation of %s failed: %v", order.OrderNumber, err)
			continue
		}
		if outcome != "still awaiting payment" {
			log.Printf("🔄 Reconciled %s: %s", order.OrderNumber, outcome)
		}
	}
}
