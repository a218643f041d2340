package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/config"
	menuControllers "github.com/quantumclimb/curryhouse-api/controllers/menu"
	"github.com/quantumclimb/curryhouse-api/controllers/notify"
	orderControllers "github.com/quantumclimb/curryhouse-api/controllers/order"
	paymentControllers "github.com/quantumclimb/curryhouse-api/controllers/payment"
	"github.com/quantumclimb/curryhouse-api/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Accepts the operator
// JWT (dashboard) or the admin API key (scripts, cron).
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, processor *paymentControllers.Client, notifier notify.Notifier) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.OperatorAuth(cfg.Admin.APIKey, cfg.Admin.JWTSecret))
	{
		// ─────────── Menu Management ───────────
		menuAdmin := adminGroup.Group("/menu")
		{
			menuAdmin.POST("", menuControllers.CreateMenuItem(db))
			menuAdmin.PUT("/:id", menuControllers.UpdateMenuItem(db))
			menuAdmin.DELETE("/:id", menuControllers.DeleteMenuItem(db))
		}

		// ─────────── Category Management ───────────
		categoryAdmin := adminGroup.Group("/categories")
		{
			categoryAdmin.POST("", menuControllers.CreateCategory(db))
			categoryAdmin.PUT("/:id", menuControllers.UpdateCategory(db))
			categoryAdmin.DELETE("/:id", menuControllers.DeleteCategory(db))
		}

		// ─────────── Store Availability ───────────
		adminGroup.PUT("/store-status", menuControllers.UpdateStoreStatus(db))

		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.ListOrdersHandler(db))
			orderAdmin.GET("/export-excel", orderControllers.ExportOrdersToExcel(db))
			orderAdmin.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))
			orderAdmin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(db))
			orderAdmin.PUT("/:orderID/refund", orderControllers.MarkRefundedHandler(db))
			orderAdmin.POST("/:orderID/confirm", orderControllers.ManualConfirmHandler(db, notifier))
			orderAdmin.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(db))
			orderAdmin.POST("/:orderID/reconcile", paymentControllers.ReconcileHandler(db, processor, notifier))
		}
	}
}
