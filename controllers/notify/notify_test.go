package notify

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantumclimb/curryhouse-api/config"
	"github.com/quantumclimb/curryhouse-api/models"
)

func TestOrderConfirmedReturnsWhileSMTPServerStalls(t *testing.T) {
	// A listener that never accepts: the dial completes via the kernel
	// backlog and the client then waits forever for an SMTP greeting that
	// never comes.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := &config.Config{}
	cfg.SMTP.Host = "127.0.0.1"
	cfg.SMTP.Port = ln.Addr().(*net.TCPAddr).Port
	cfg.SMTP.From = "orders@curryhouse.example"

	m := NewMailer(cfg)
	order := models.Order{
		OrderNumber:   "ORD-20250831-NNNN0001",
		CustomerName:  "Asha Kapoor",
		CustomerEmail: "asha@example.com",
		TotalCents:    2250,
	}

	done := make(chan struct{})
	go func() {
		m.OrderConfirmed(order)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OrderConfirmed blocked on a stalled SMTP server; webhook responses would be held open")
	}
}

func TestOrderConfirmedSkipsWhenSMTPUnconfigured(t *testing.T) {
	m := NewMailer(&config.Config{})
	done := make(chan struct{})
	go func() {
		m.OrderConfirmed(models.Order{OrderNumber: "ORD-20250831-NNNN0002"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OrderConfirmed blocked without SMTP configuration")
	}
}

func TestTemplatesRenderOrderDetails(t *testing.T) {
	order := models.Order{
		OrderNumber:   "ORD-20250831-NNNN0003",
		CustomerName:  "Asha Kapoor",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "+31612345678",
		Items: []models.OrderItem{
			{Name: "Chicken Tikka Masala", SpiceLevel: "medium", Quantity: 1, LineTotalCents: 1000},
			{Name: "Garlic Naan", Quantity: 2, LineTotalCents: 1000},
		},
		DeliveryFeeCents: 250,
		TotalCents:       2250,
		PaymentMethod:    models.PaymentMethodCard,
		Address: models.DeliveryAddress{
			Street: "Keizersgracht 12", City: "Amsterdam", PostalCode: "1015 CS",
		},
	}

	body, err := renderTemplate(customerTemplate, order)
	require.NoError(t, err)
	require.Contains(t, body, "ORD-20250831-NNNN0003")
	require.Contains(t, body, "Chicken Tikka Masala (medium)")
	require.Contains(t, body, "€22.50")

	body, err = renderTemplate(operatorTemplate, order)
	require.NoError(t, err)
	require.Contains(t, body, "+31612345678")
	require.Contains(t, body, "Keizersgracht 12")
}
