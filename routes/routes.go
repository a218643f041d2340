package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/config"
	"github.com/quantumclimb/curryhouse-api/controllers/notify"
	paymentControllers "github.com/quantumclimb/curryhouse-api/controllers/payment"
)

// SetupRoutes is the single entry-point that wires up the storefront,
// payment, and admin route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, processor *paymentControllers.Client, notifier notify.Notifier) {
	// Public storefront routes (no middleware)
	SetupAuthRoutes(r, cfg)
	SetupMenuRoutes(r, db)
	SetupCartRoutes(r, db)
	SetupOrderRoutes(r, db, cfg, processor)

	// Payment processor webhook (signature-verified)
	SetupPaymentRoutes(r, db, cfg, notifier)

	// Back-office routes (operator JWT or API key)
	SetupAdminRoutes(r, db, cfg, processor, notifier)
}
