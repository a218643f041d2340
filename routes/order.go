package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/config"
	orderControllers "github.com/quantumclimb/curryhouse-api/controllers/order"
)

// SetupOrderRoutes registers the storefront-facing order endpoints.
func SetupOrderRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, checkout orderControllers.CheckoutStarter) {
	orders := r.Group("/orders")
	{
		// Place a new order (card → checkout redirect, manual → WhatsApp link)
		orders.POST("", orderControllers.CreateOrderHandler(db, cfg, checkout))

		// Confirmation-page lookup by the number in the redirect URL
		orders.GET("/:number", orderControllers.GetOrderByNumberHandler(db))
	}

	// websocket endpoint for real-time order updates
	r.GET("/ws/orders", orderControllers.OrderWebSocketHandler)
}
