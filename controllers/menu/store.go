package menuControllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/models"
)

type StoreStatusInput struct {
	Open    *bool  `json:"open" binding:"required"`
	Message string `json:"message"`
}

// GET /store-status (public; the storefront shows this banner)
func GetStoreStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var status models.StoreStatus
		if err := db.First(&status).Error; err != nil {
			// No row yet means the store never got closed: default open.
			c.JSON(http.StatusOK, models.StoreStatus{Open: true})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// PUT /admin/store-status
func UpdateStoreStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input StoreStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var status models.StoreStatus
		if err := db.First(&status).Error; err != nil {
			status = models.StoreStatus{}
		}
		status.Open = *input.Open
		status.Message = input.Message
		status.UpdatedAt = time.Now()

		if err := db.Save(&status).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store status"})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
