package menuControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/models"
)

type MenuItemInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"required,min=1"`
	Image       string `json:"image"`
	SpiceLevels string `json:"spice_levels"`
	Available   *bool  `json:"available"`
	CategoryIDs []uint `json:"category_ids"`
}

// POST /admin/menu
func CreateMenuItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input MenuItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item := models.MenuItem{
			Name:        input.Name,
			Description: input.Description,
			PriceCents:  input.PriceCents,
			Image:       input.Image,
			SpiceLevels: input.SpiceLevels,
			Available:   true,
		}
		if input.Available != nil {
			item.Available = *input.Available
		}

		if len(input.CategoryIDs) > 0 {
			var categories []models.Category
			if err := db.Find(&categories, input.CategoryIDs).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve categories"})
				return
			}
			item.Categories = categories
		}

		if err := db.Create(&item).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create menu item"})
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// PUT /admin/menu/:id
//
// Price changes here never touch existing orders: orders carry their own
// snapshotted prices.
func UpdateMenuItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
			return
		}

		var item models.MenuItem
		if err := db.First(&item, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve menu item"})
			}
			return
		}

		var input MenuItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item.Name = input.Name
		item.Description = input.Description
		item.PriceCents = input.PriceCents
		item.Image = input.Image
		item.SpiceLevels = input.SpiceLevels
		if input.Available != nil {
			item.Available = *input.Available
		}

		if err := db.Save(&item).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update menu item"})
			return
		}

		if input.CategoryIDs != nil {
			var categories []models.Category
			if err := db.Find(&categories, input.CategoryIDs).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve categories"})
				return
			}
			if err := db.Model(&item).Association("Categories").Replace(categories); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update categories"})
				return
			}
		}

		c.JSON(http.StatusOK, item)
	}
}

// GET /menu?category=&available=
func GetMenu(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Categories")

		if categoryID := c.Query("category"); categoryID != "" {
			query = query.
				Joins("JOIN menu_item_categories ON menu_item_categories.menu_item_id = menu_items.id").
				Where("menu_item_categories.category_id = ?", categoryID)
		}
		if c.Query("available") == "true" {
			query = query.Where("available = ?", true)
		}

		var items []models.MenuItem
		if err := query.Order("name ASC").Find(&items).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve menu"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GET /menu/:id
func GetMenuItemByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
			return
		}

		var item models.MenuItem
		if err := db.Preload("Categories").First(&item, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve menu item"})
			}
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// DELETE /admin/menu/:id (soft delete; existing orders keep their snapshot)
func DeleteMenuItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
			return
		}

		result := db.Delete(&models.MenuItem{}, id)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete menu item"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
	}
}
