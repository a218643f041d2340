package orderControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/models"
)

// GET /admin/orders/export-excel
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		// Header row
		headers := []string{
			"OrderNumber", "Status", "PaymentStatus", "PaymentMethod",
			"CustomerName", "CustomerEmail", "CustomerPhone",
			"Subtotal", "DeliveryFee", "Total", "Items",
			"CheckoutSessionID", "CreatedAt", "ConfirmedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		// Data rows
		for _, o := range orders {
			row := sheet.AddRow()

			row.AddCell().SetValue(o.OrderNumber)
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(string(o.PaymentStatus))
			row.AddCell().SetValue(string(o.PaymentMethod))
			row.AddCell().SetValue(o.CustomerName)
			row.AddCell().SetValue(o.CustomerEmail)
			row.AddCell().SetValue(o.CustomerPhone)
			row.AddCell().SetValue(euros(o.SubtotalCents))
			row.AddCell().SetValue(euros(o.DeliveryFeeCents))
			row.AddCell().SetValue(euros(o.TotalCents))

			items := ""
			for i, item := range o.Items {
				if i > 0 {
					items += "; "
				}
				items += itemSummary(item)
			}
			row.AddCell().SetValue(items)

			row.AddCell().SetValue(o.CheckoutSessionID)
			row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
			if o.ConfirmedAt != nil {
				row.AddCell().SetValue(o.ConfirmedAt.Format("2006-01-02 15:04:05"))
			} else {
				row.AddCell().SetValue("")
			}
		}

		// Set response headers for download
		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}

func itemSummary(item models.OrderItem) string {
	s := item.Name
	if item.SpiceLevel != "" {
		s += " (" + item.SpiceLevel + ")"
	}
	return s + " x" + strconv.Itoa(item.Quantity)
}
