package paymentControllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/controllers/notify"
	orderControllers "github.com/quantumclimb/curryhouse-api/controllers/order"
	"github.com/quantumclimb/curryhouse-api/middleware"
	"github.com/quantumclimb/curryhouse-api/models"
)

// Webhook event types. Only the completed-session event drives state;
// everything else is acknowledged and ignored so the processor stops
// retrying it.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventCheckoutSessionExpired   = "checkout.session.expired"
)

// WebhookEvent is the processor's signed callback payload.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// WebhookHandler processes payment events. It runs strictly after
// middleware.VerifyWebhookSignature: the payload read here has already been
// authenticated against the raw body.
//
// Delivery is at-least-once and unordered. Idempotency comes from
// ConfirmOrder's guarded update, so a duplicate or late event is a no-op
// with a 200, and only the delivery that wins the transition sends
// notifications.
func WebhookHandler(db *gorm.DB, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := middleware.RawBody(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook payload missing from context"})
			return
		}

		var event WebhookEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed webhook payload"})
			return
		}

		switch event.Type {
		case EventCheckoutSessionCompleted:
			// handled below
		case EventCheckoutSessionExpired:
			handleSessionExpired(c, db, event.Data.Object)
			return
		default:
			c.JSON(http.StatusOK, gin.H{"message": "event ignored"})
			return
		}

		session := event.Data.Object
		if session.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event has no session id"})
			return
		}

		// A session can complete with the payment still pending or failed;
		// only an actually paid session confirms the order.
		if session.PaymentStatus != SessionPaymentPaid {
			log.Printf("⚠️ Session %s completed but not paid (%s), ignoring", session.ID, session.PaymentStatus)
			c.JSON(http.StatusOK, gin.H{"message": "session not paid, no action taken"})
			return
		}

		var order models.Order
		if err := db.Preload("Items").Where("checkout_session_id = ?", session.ID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Paid event with no matching order: secret mismatch, stale
				// data, or a race with order creation. Fail so the
				// processor redelivers; never create an order from a
				// webhook.
				log.Printf("❌ Paid webhook for unknown checkout session %s", session.ID)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "no order for checkout session"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		confirmed, err := orderControllers.ConfirmOrder(db, order.ID, session.PaymentIntentID, "")
		if err != nil {
			if errors.Is(err, orderControllers.ErrOrderCancelled) {
				// Paid at the processor but cancelled locally: needs a
				// refund decision, not a retry storm.
				log.Printf("❌ Order %s is cancelled locally but paid at the processor — operator attention needed", order.OrderNumber)
				c.JSON(http.StatusOK, gin.H{"message": "order cancelled locally, flagged for operator"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if confirmed {
			log.Printf("✅ Order %s confirmed via webhook (session %s)", order.OrderNumber, session.ID)
			// Best-effort side effects; the confirmation already happened
			// and a notification failure must not fail this response.
			order.Status = models.OrderStatusConfirmed
			order.PaymentStatus = models.PaymentStatusSucceeded
			order.PaymentIntentID = session.PaymentIntentID
			notifier.OrderConfirmed(order)
			orderControllers.BroadcastOrderUpdate(order)
		}

		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

// handleSessionExpired cancels the pending order whose checkout session the
// processor expired (abandoned payment page). Already-confirmed orders are
// untouched: the guarded update only moves pending ones.
func handleSessionExpired(c *gin.Context, db *gorm.DB, session CheckoutSession) {
	if session.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event has no session id"})
		return
	}

	var order models.Order
	if err := db.Where("checkout_session_id = ?", session.ID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"message": "no order for expired session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cancelled, err := orderControllers.CancelPendingOrder(db, order.ID, models.PaymentStatusFailed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cancelled {
		log.Printf("🗑️ Order %s cancelled, checkout session expired", order.OrderNumber)
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
