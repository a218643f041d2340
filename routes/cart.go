package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/quantumclimb/curryhouse-api/controllers/cart"
)

// SetupCartRoutes registers the session-cart endpoints. Every endpoint
// takes ?session_id=, the opaque id the storefront keeps in local storage.
func SetupCartRoutes(r *gin.Engine, db *gorm.DB) {
	cartGroup := r.Group("/cart")
	{
		cartGroup.GET("", cartControllers.GetCart(db))
		cartGroup.POST("", cartControllers.AddCartItem(db))
		cartGroup.PUT("/:item_id", cartControllers.UpdateCartItemQuantity(db))
		cartGroup.DELETE("/:item_id", cartControllers.DeleteCartItem(db))
		cartGroup.DELETE("", cartControllers.ClearCart(db))
	}
}
