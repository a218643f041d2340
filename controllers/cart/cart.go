package cartControllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/models"
)

type CartItemInput struct {
	MenuItemID uint   `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	SpiceLevel string `json:"spice_level"`
}

type QuantityInput struct {
	Quantity int `json:"quantity"`
}

// CartResponse is what every cart endpoint returns: the lines plus totals
// recomputed after the mutation.
type CartResponse struct {
	SessionID     string            `json:"session_id"`
	Items         []models.CartItem `json:"items"`
	ItemCount     int               `json:"item_count"`
	SubtotalCents int64             `json:"subtotal_cents"`
}

func buildCartResponse(cart models.Cart) CartResponse {
	resp := CartResponse{SessionID: cart.SessionID, Items: cart.Items}
	if resp.Items == nil {
		resp.Items = []models.CartItem{}
	}
	for _, item := range cart.Items {
		resp.ItemCount += item.Quantity
		resp.SubtotalCents += item.LineTotalCents()
	}
	return resp
}

func loadCart(db *gorm.DB, sessionID string) (models.Cart, error) {
	var cart models.Cart
	err := db.Preload("Items").Where("session_id = ?", sessionID).First(&cart).Error
	if err == gorm.ErrRecordNotFound {
		cart = models.Cart{SessionID: sessionID}
		if err := db.Create(&cart).Error; err != nil {
			return cart, err
		}
		return cart, nil
	}
	return cart, err
}

func sessionID(c *gin.Context) (string, bool) {
	id := c.Query("session_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return "", false
	}
	return id, true
}

func respondWithCart(c *gin.Context, db *gorm.DB, sessionID string, status int) {
	var cart models.Cart
	if err := db.Preload("Items").Where("session_id = ?", sessionID).First(&cart).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	c.JSON(status, buildCartResponse(cart))
}

// POST /cart
//
// Adds a line to the session's cart. A line merges (quantities summed) only
// when both the menu item and the spice level match an existing line.
func AddCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := sessionID(c)
		if !ok {
			return
		}

		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var menuItem models.MenuItem
		if err := db.First(&menuItem, "id = ?", input.MenuItemID).Error; err != nil {
			status := http.StatusInternalServerError
			errMsg := "Failed to validate menu item"
			if err == gorm.ErrRecordNotFound {
				status = http.StatusBadRequest
				errMsg = "Menu item does not exist"
			}
			c.JSON(status, gin.H{"error": errMsg})
			return
		}
		if !menuItem.Available {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Menu item is currently unavailable"})
			return
		}
		if !menuItem.OffersSpiceLevel(input.SpiceLevel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Spice level not offered for this item"})
			return
		}

		cart, err := loadCart(db, sid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}

		var item models.CartItem
		err = db.Where("cart_id = ? AND menu_item_id = ? AND spice_level = ?",
			cart.CartID, input.MenuItemID, input.SpiceLevel).First(&item).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart item"})
				return
			}
			newItem := models.CartItem{
				CartID:         cart.CartID,
				MenuItemID:     menuItem.ID,
				Name:           menuItem.Name,
				UnitPriceCents: menuItem.PriceCents,
				SpiceLevel:     input.SpiceLevel,
				Quantity:       input.Quantity,
				AddedAt:        time.Now(),
			}
			if err := db.Create(&newItem).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
				return
			}
			respondWithCart(c, db, sid, http.StatusCreated)
			return
		}

		item.Quantity += input.Quantity
		item.AddedAt = time.Now()
		if err := db.Save(&item).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
			return
		}
		respondWithCart(c, db, sid, http.StatusOK)
	}
}

// PUT /cart/:item_id
//
// Sets a line's quantity. Zero or below removes the line.
func UpdateCartItemQuantity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := sessionID(c)
		if !ok {
			return
		}
		itemID := c.Param("item_id")

		var input QuantityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var cart models.Cart
		if err := db.Where("session_id = ?", sid).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
			return
		}

		if input.Quantity <= 0 {
			result := db.Where("cart_id = ? AND id = ?", cart.CartID, itemID).Delete(&models.CartItem{})
			if result.Error != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove item"})
				return
			}
			if result.RowsAffected == 0 {
				c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
				return
			}
			respondWithCart(c, db, sid, http.StatusOK)
			return
		}

		result := db.Model(&models.CartItem{}).
			Where("cart_id = ? AND id = ?", cart.CartID, itemID).
			Updates(map[string]interface{}{"quantity": input.Quantity, "added_at": time.Now()})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		respondWithCart(c, db, sid, http.StatusOK)
	}
}

// DELETE /cart/:item_id
func DeleteCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := sessionID(c)
		if !ok {
			return
		}
		itemID := c.Param("item_id")

		var cart models.Cart
		if err := db.Where("session_id = ?", sid).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
			return
		}

		result := db.Where("cart_id = ? AND id = ?", cart.CartID, itemID).Delete(&models.CartItem{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		respondWithCart(c, db, sid, http.StatusOK)
	}
}

// DELETE /cart
func ClearCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := sessionID(c)
		if !ok {
			return
		}

		var cart models.Cart
		if err := db.Where("session_id = ?", sid).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
			return
		}

		if err := db.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}
		respondWithCart(c, db, sid, http.StatusOK)
	}
}

// GET /cart
func GetCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := sessionID(c)
		if !ok {
			return
		}

		cart, err := loadCart(db, sid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		c.JSON(http.StatusOK, buildCartResponse(cart))
	}
}
