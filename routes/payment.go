package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/config"
	"github.com/quantumclimb/curryhouse-api/controllers/notify"
	paymentControllers "github.com/quantumclimb/curryhouse-api/controllers/payment"
	"github.com/quantumclimb/curryhouse-api/middleware"
)

// SetupPaymentRoutes registers the processor-facing webhook endpoint.
// Signature verification runs before the handler ever sees the payload.
func SetupPaymentRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, notifier notify.Notifier) {
	payment := r.Group("/payment")
	{
		payment.POST("/webhook",
			middleware.VerifyWebhookSignature(cfg.Payment.WebhookSecret),
			paymentControllers.WebhookHandler(db, notifier),
		)
	}
}
