package paymentControllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumclimb/curryhouse-api/config"
	"github.com/quantumclimb/curryhouse-api/models"
)

func newTestClient(serverURL string) *Client {
	cfg := &config.Config{}
	cfg.Payment.APIURL = serverURL
	cfg.Payment.APIKey = "sk_test_key"
	cfg.Checkout.Currency = "eur"
	cfg.Checkout.SuccessURL = "https://curryhouse.example/order-confirmed"
	cfg.Checkout.CancelURL = "https://curryhouse.example/checkout"
	return NewClient(cfg)
}

func TestStartCheckoutBuildsSessionFromOrderLines(t *testing.T) {
	var captured createSessionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(CheckoutSession{
			ID: "cs_new", URL: "https://pay.example/cs_new", Status: "open", PaymentStatus: SessionPaymentUnpaid,
		})
	}))
	defer server.Close()

	order := models.Order{
		OrderNumber:   "ORD-20250831-CCCC0001",
		CustomerEmail: "asha@example.com",
		Items: []models.OrderItem{
			{Name: "Chicken Tikka Masala", SpiceLevel: "medium", UnitPriceCents: 1000, Quantity: 1},
			{Name: "Garlic Naan", UnitPriceCents: 500, Quantity: 2},
		},
		DeliveryFeeCents: 250,
	}

	sessionID, redirectURL, err := newTestClient(server.URL).StartCheckout(order)
	require.NoError(t, err)
	assert.Equal(t, "cs_new", sessionID)
	assert.Equal(t, "https://pay.example/cs_new", redirectURL)

	assert.Equal(t, "eur", captured.Currency)
	assert.Equal(t, "ORD-20250831-CCCC0001", captured.ClientReferenceID)
	assert.Equal(t, "asha@example.com", captured.CustomerEmail)
	assert.Equal(t, "https://curryhouse.example/order-confirmed?order=ORD-20250831-CCCC0001", captured.SuccessURL)

	require.Len(t, captured.LineItems, 3)
	assert.Equal(t, "Chicken Tikka Masala (medium)", captured.LineItems[0].Name)
	assert.Equal(t, int64(1000), captured.LineItems[0].UnitAmount)
	assert.Equal(t, "Garlic Naan", captured.LineItems[1].Name)
	assert.Equal(t, 2, captured.LineItems[1].Quantity)
	assert.Equal(t, "Delivery", captured.LineItems[2].Name)
	assert.Equal(t, int64(250), captured.LineItems[2].UnitAmount)
}

func TestCreateCheckoutSessionRejectsEmptyURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CheckoutSession{ID: "cs_nourl"})
	}))
	defer server.Close()

	_, _, err := newTestClient(server.URL).StartCheckout(models.Order{OrderNumber: "ORD-20250831-CCCC0002"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty checkout URL")
}

func TestGetCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/checkout/sessions/cs_lookup", r.URL.Path)
		json.NewEncoder(w).Encode(CheckoutSession{
			ID: "cs_lookup", Status: "complete", PaymentStatus: SessionPaymentPaid, PaymentIntentID: "pi_lookup",
		})
	}))
	defer server.Close()

	session, err := newTestClient(server.URL).GetCheckoutSession("cs_lookup")
	require.NoError(t, err)
	assert.Equal(t, SessionPaymentPaid, session.PaymentStatus)
	assert.Equal(t, "pi_lookup", session.PaymentIntentID)
}

func TestClientSurfacesProcessorErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCheckoutSession("cs_err")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your card was declined.")
}

func TestNewClientPanicsWithoutConfig(t *testing.T) {
	assert.Panics(t, func() { NewClient(&config.Config{}) })
}
