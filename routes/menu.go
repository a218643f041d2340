package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	menuControllers "github.com/quantumclimb/curryhouse-api/controllers/menu"
)

// SetupMenuRoutes registers the public menu-browsing endpoints.
func SetupMenuRoutes(r *gin.Engine, db *gorm.DB) {
	r.GET("/menu", menuControllers.GetMenu(db))
	r.GET("/menu/:id", menuControllers.GetMenuItemByID(db))
	r.GET("/categories", menuControllers.GetAllCategories(db))
	r.GET("/store-status", menuControllers.GetStoreStatus(db))
}
