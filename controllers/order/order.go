package orderControllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/config"
	"github.com/quantumclimb/curryhouse-api/controllers/notify"
	"github.com/quantumclimb/curryhouse-api/models"
)

// CheckoutStarter creates a hosted checkout session for a freshly placed
// order and returns the session id plus the redirect URL for the customer.
type CheckoutStarter interface {
	StartCheckout(order models.Order) (sessionID, redirectURL string, err error)
}

// -------- Request Structs --------

type CreateOrderRequest struct {
	SessionID     string `json:"session_id" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required,min=2"`
	CustomerEmail string `json:"customer_email" binding:"required,email"`
	CustomerPhone string `json:"customer_phone" binding:"required"`
	Street        string `json:"street" binding:"required"`
	Apartment     string `json:"apartment"`
	City          string `json:"city" binding:"required"`
	PostalCode    string `json:"postal_code" binding:"required"`
	Country       string `json:"country" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// -------- Helpers --------

func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch strings.ToLower(status) {
	case string(models.OrderStatusPending):
		return models.OrderStatusPending, nil
	case string(models.OrderStatusConfirmed):
		return models.OrderStatusConfirmed, nil
	case string(models.OrderStatusPreparing):
		return models.OrderStatusPreparing, nil
	case string(models.OrderStatusReady):
		return models.OrderStatusReady, nil
	case string(models.OrderStatusInTransit):
		return models.OrderStatusInTransit, nil
	case string(models.OrderStatusDelivered):
		return models.OrderStatusDelivered, nil
	case string(models.OrderStatusCancelled):
		return models.OrderStatusCancelled, nil
	default:
		return "", errors.New("invalid order status")
	}
}

func mapPaymentMethod(method string) (models.PaymentMethod, error) {
	switch strings.ToLower(method) {
	case string(models.PaymentMethodCard):
		return models.PaymentMethodCard, nil
	case string(models.PaymentMethodManual):
		return models.PaymentMethodManual, nil
	default:
		return "", errors.New("invalid payment method")
	}
}

// generateOrderNumber builds the human-facing order number, e.g.
// ORD-20250831-1A2B3C4D. The suffix comes from a UUID so the public lookup
// endpoint is not trivially enumerable.
func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// fulfillment chain; cancelled is reachable from anything before delivered
var statusChain = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusPreparing,
	models.OrderStatusReady,
	models.OrderStatusInTransit,
	models.OrderStatusDelivered,
}

func chainIndex(s models.OrderStatus) int {
	for i, v := range statusChain {
		if v == s {
			return i
		}
	}
	return -1
}

func statusTransitionAllowed(from, to models.OrderStatus) bool {
	if to == models.OrderStatusCancelled {
		return from != models.OrderStatusDelivered && from != models.OrderStatusCancelled
	}
	fi, ti := chainIndex(from), chainIndex(to)
	return fi >= 0 && ti == fi+1
}

func euros(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}

// WhatsAppLink builds the wa.me deep link used by the manual payment path.
func WhatsAppLink(phone string, order models.Order) string {
	message := fmt.Sprintf("Hello! I would like to pay for order %s (total €%s).",
		order.OrderNumber, euros(order.TotalCents))
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(message))
}

// -------- Core Logic --------

// CreateOrder snapshots the session's cart into a pending order. The cart
// is cleared only after the order (and, for card payments, the checkout
// session) is in place, so a failed processor call leaves the cart intact
// for a retry.
func CreateOrder(db *gorm.DB, cfg *config.Config, req CreateOrderRequest) (*models.Order, error) {
	if countDigits(req.CustomerPhone) < 9 {
		return nil, errors.New("customer phone must contain at least 9 digits")
	}

	method, err := mapPaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := db.Preload("Items").Where("session_id = ?", req.SessionID).First(&cart).Error; err != nil {
		return nil, errors.New("cart not found")
	}
	if len(cart.Items) == 0 {
		return nil, errors.New("cart is empty")
	}

	var subtotal int64
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		lineTotal := item.LineTotalCents()
		subtotal += lineTotal
		items = append(items, models.OrderItem{
			MenuItemID:     item.MenuItemID,
			Name:           item.Name,
			SpiceLevel:     item.SpiceLevel,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: lineTotal,
		})
	}

	order := models.Order{
		OrderNumber:   generateOrderNumber(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Address: models.DeliveryAddress{
			Street:     req.Street,
			Apartment:  req.Apartment,
			City:       req.City,
			PostalCode: req.PostalCode,
			Country:    req.Country,
		},
		Items:            items,
		SubtotalCents:    subtotal,
		DeliveryFeeCents: cfg.Checkout.DeliveryFeeCents,
		TotalCents:       subtotal + cfg.Checkout.DeliveryFeeCents,
		Status:           models.OrderStatusPending,
		PaymentStatus:    models.PaymentStatusPending,
		PaymentMethod:    method,
	}

	if err := db.Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func clearCart(db *gorm.DB, sessionID string) {
	var cart models.Cart
	if err := db.Where("session_id = ?", sessionID).First(&cart).Error; err != nil {
		return
	}
	if err := db.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
		log.Printf("❌ Failed to clear cart %s after order placement: %v", sessionID, err)
	}
}

// -------- Handlers --------

// POST /orders
func CreateOrderHandler(db *gorm.DB, cfg *config.Config, checkout CheckoutStarter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var status models.StoreStatus
		if err := db.First(&status).Error; err == nil && !status.Open {
			msg := status.Message
			if msg == "" {
				msg = "The restaurant is currently not taking orders"
			}
			c.JSON(http.StatusConflict, gin.H{"error": msg})
			return
		}

		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := CreateOrder(db, cfg, req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if order.PaymentMethod == models.PaymentMethodManual {
			clearCart(db, req.SessionID)
			c.JSON(http.StatusCreated, gin.H{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
				"whatsapp_url": WhatsAppLink(cfg.WhatsAppPhone, *order),
			})
			return
		}

		sessionID, redirectURL, err := checkout.StartCheckout(*order)
		if err != nil {
			// The pending order stays behind without a session id; the
			// storefront surfaces a retryable error. The reconciler keeps
			// such orders visible until an operator decides.
			log.Printf("❌ Checkout session creation failed for %s: %v", order.OrderNumber, err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":        "payment processor unavailable, please try again",
				"order_number": order.OrderNumber,
			})
			return
		}
		if err := AttachCheckoutSession(db, order.ID, sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		clearCart(db, req.SessionID)

		c.JSON(http.StatusCreated, gin.H{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"checkout_url": redirectURL,
		})
	}
}

// GET /orders/:number
//
// Public lookup for the post-payment confirmation page; the customer
// arrives here with the order number from the redirect URL.
func GetOrderByNumberHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		number := c.Param("number")
		if number == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order number is required"})
			return
		}

		var order models.Order
		if err := db.Preload("Items").Where("order_number = ?", number).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /admin/orders/:orderID
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("orderID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		var order models.Order
		if err := db.Preload("Items").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /admin/orders?status=&page=&limit=
func ListOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}

		query := db.Model(&models.Order{})
		if status := c.Query("status"); status != "" {
			mapped, err := mapOrderStatus(status)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			query = query.Where("status = ?", mapped)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var orders []models.Order
		if err := query.
			Preload("Items").
			Order("created_at DESC").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": orders,
			"total":  total,
			"page":   page,
			"limit":  limit,
		})
	}
}

// PUT /admin/orders/:orderID/status
//
// Walks the fulfillment chain one step at a time. Confirmation is not
// reachable from here: it goes through the webhook, the reconciler, or the
// manual confirm endpoint, which enforce the payment-side invariants.
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("orderID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, err := mapOrderStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if newStatus == models.OrderStatusConfirmed {
			c.JSON(http.StatusConflict, gin.H{"error": "confirmation goes through payment confirmation or the manual confirm endpoint"})
			return
		}

		var order models.Order
		if err := db.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !statusTransitionAllowed(order.Status, newStatus) {
			c.JSON(http.StatusConflict, gin.H{
				"error": fmt.Sprintf("cannot move order from %s to %s", order.Status, newStatus),
			})
			return
		}

		// Guarded on the status we just read, so two operators clicking at
		// once cannot both advance the order.
		result := db.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, order.Status).
			Updates(map[string]interface{}{"status": newStatus, "updated_at": time.Now()})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order status"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "order status changed concurrently, refresh and retry"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully"})
	}
}

// POST /admin/orders/:orderID/confirm
//
// Manual/offline confirmation: the operator verified payment out of band
// (WhatsApp transfer, cash on pickup), no processor event exists. Narrower
// trust model, recorded via payment_method.
func ManualConfirmHandler(db *gorm.DB, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("orderID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		confirmed, err := ConfirmOrder(db, uint(id), "", models.PaymentMethodManual)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			if errors.Is(err, ErrOrderCancelled) {
				c.JSON(http.StatusConflict, gin.H{"error": "order is cancelled"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var order models.Order
		if err := db.Preload("Items").First(&order, id).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if confirmed {
			notifier.OrderConfirmed(order)
			BroadcastOrderUpdate(order)
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /admin/orders/:orderID/cancel
func CancelOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("orderID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		cancelled, err := CancelPendingOrder(db, uint(id), models.PaymentStatusFailed)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !cancelled {
			c.JSON(http.StatusConflict, gin.H{"error": "order is not pending"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order cancelled"})
	}
}

// PUT /admin/orders/:orderID/refund
//
// Marks a succeeded payment as refunded after the operator issued the
// refund with the processor. Bookkeeping only; no processor call here.
func MarkRefundedHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("orderID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		result := db.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", id, models.PaymentStatusSucceeded).
			Updates(map[string]interface{}{"payment_status": models.PaymentStatusRefunded, "updated_at": time.Now()})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "payment is not in succeeded state"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment marked refunded"})
	}
}
