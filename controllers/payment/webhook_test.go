package paymentControllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quantumclimb/curryhouse-api/middleware"
	"github.com/quantumclimb/curryhouse-api/models"
)

const testWebhookSecret = "whsec_test_secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return db
}

// recordingNotifier counts confirmation notifications per order number.
type recordingNotifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: make(map[string]int)}
}

func (n *recordingNotifier) OrderConfirmed(order models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[order.OrderNumber]++
}

func (n *recordingNotifier) count(orderNumber string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[orderNumber]
}

func newWebhookRouter(db *gorm.DB, notifier *recordingNotifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/payment/webhook", middleware.VerifyWebhookSignature(testWebhookSecret), WebhookHandler(db, notifier))
	return r
}

func createPendingOrder(t *testing.T, db *gorm.DB, orderNumber, sessionID string) models.Order {
	t.Helper()
	order := models.Order{
		OrderNumber:       orderNumber,
		CustomerName:      "Asha Kapoor",
		CustomerEmail:     "asha@example.com",
		CustomerPhone:     "+31612345678",
		SubtotalCents:     2000,
		DeliveryFeeCents:  250,
		TotalCents:        2250,
		Status:            models.OrderStatusPending,
		PaymentStatus:     models.PaymentStatusProcessing,
		PaymentMethod:     models.PaymentMethodCard,
		CheckoutSessionID: sessionID,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func eventBody(t *testing.T, eventType string, session CheckoutSession) []byte {
	t.Helper()
	event := WebhookEvent{ID: "evt_" + session.ID, Type: eventType}
	event.Data.Object = session
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func signedRequest(body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ts := fmt.Sprint(time.Now().Unix())
	sig := middleware.ComputeSignature(testWebhookSecret, ts, body)
	req.Header.Set(middleware.SignatureHeader, fmt.Sprintf("t=%s,v1=%s", ts, sig))
	return req
}

func deliver(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookConfirmsPaidSession(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)
	order := createPendingOrder(t, db, "ORD-20250831-AAAA0001", "cs_paid_1")

	body := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_paid_1", Status: "complete", PaymentStatus: SessionPaymentPaid, PaymentIntentID: "pi_1",
	})
	w := deliver(r, signedRequest(body))
	require.Equal(t, http.StatusOK, w.Code)

	var after models.Order
	require.NoError(t, db.First(&after, order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, after.Status)
	assert.Equal(t, models.PaymentStatusSucceeded, after.PaymentStatus)
	assert.Equal(t, "pi_1", after.PaymentIntentID)
	assert.NotNil(t, after.ConfirmedAt)
	assert.Equal(t, 1, notifier.count(order.OrderNumber))
}

func TestWebhookDuplicateDeliveryConfirmsAndNotifiesOnce(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)
	order := createPendingOrder(t, db, "ORD-20250831-AAAA0002", "cs_dup")

	body := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_dup", Status: "complete", PaymentStatus: SessionPaymentPaid, PaymentIntentID: "pi_dup",
	})

	for i := 0; i < 3; i++ {
		w := deliver(r, signedRequest(body))
		require.Equal(t, http.StatusOK, w.Code)
	}

	var after models.Order
	require.NoError(t, db.First(&after, order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, after.Status)
	assert.Equal(t, 1, notifier.count(order.OrderNumber))
}

func TestWebhookInterleavedDeliveriesAcrossOrders(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)
	orderX := createPendingOrder(t, db, "ORD-20250831-XXXX0001", "cs_x")
	orderY := createPendingOrder(t, db, "ORD-20250831-YYYY0001", "cs_y")

	bodyX := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_x", Status: "complete", PaymentStatus: SessionPaymentPaid, PaymentIntentID: "pi_x",
	})
	bodyY := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_y", Status: "complete", PaymentStatus: SessionPaymentPaid, PaymentIntentID: "pi_y",
	})

	// X delivered twice around Y's single delivery.
	require.Equal(t, http.StatusOK, deliver(r, signedRequest(bodyX)).Code)
	require.Equal(t, http.StatusOK, deliver(r, signedRequest(bodyY)).Code)
	require.Equal(t, http.StatusOK, deliver(r, signedRequest(bodyX)).Code)

	for _, order := range []models.Order{orderX, orderY} {
		var after models.Order
		require.NoError(t, db.First(&after, order.ID).Error)
		assert.Equal(t, models.OrderStatusConfirmed, after.Status)
		assert.Equal(t, 1, notifier.count(order.OrderNumber))
	}
}

func TestWebhookTamperedBodyRejected(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)
	order := createPendingOrder(t, db, "ORD-20250831-AAAA0003", "cs_tamper")

	body := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_tamper", Status: "complete", PaymentStatus: SessionPaymentUnpaid,
	})
	ts := fmt.Sprint(time.Now().Unix())
	sig := middleware.ComputeSignature(testWebhookSecret, ts, body)

	// Flip the body after signing.
	tampered := bytes.Replace(body, []byte(SessionPaymentUnpaid), []byte(SessionPaymentPaid), 1)
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewReader(tampered))
	req.Header.Set(middleware.SignatureHeader, fmt.Sprintf("t=%s,v1=%s", ts, sig))

	w := deliver(r, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var after models.Order
	require.NoError(t, db.First(&after, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, after.Status)
	assert.Equal(t, 0, notifier.count(order.OrderNumber))
}

func TestWebhookMissingSignatureRejected(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)

	body := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_nosig", PaymentStatus: SessionPaymentPaid,
	})
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewReader(body))

	w := deliver(r, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookStaleTimestampRejected(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)

	body := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_stale", PaymentStatus: SessionPaymentPaid,
	})
	ts := fmt.Sprint(time.Now().Add(-time.Hour).Unix())
	sig := middleware.ComputeSignature(testWebhookSecret, ts, body)
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewReader(body))
	req.Header.Set(middleware.SignatureHeader, fmt.Sprintf("t=%s,v1=%s", ts, sig))

	w := deliver(r, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookIgnoresUnknownEventType(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)
	order := createPendingOrder(t, db, "ORD-20250831-AAAA0004", "cs_other")

	body := eventBody(t, "charge.refunded", CheckoutSession{ID: "cs_other"})
	w := deliver(r, signedRequest(body))
	require.Equal(t, http.StatusOK, w.Code)

	var after models.Order
	require.NoError(t, db.First(&after, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, after.Status)
}

func TestWebhookUnpaidCompletedSessionLeavesOrderPending(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)
	order := createPendingOrder(t, db, "ORD-20250831-AAAA0005", "cs_unpaid")

	body := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_unpaid", Status: "complete", PaymentStatus: SessionPaymentUnpaid,
	})
	w := deliver(r, signedRequest(body))
	require.Equal(t, http.StatusOK, w.Code)

	var after models.Order
	require.NoError(t, db.First(&after, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, after.Status)
	assert.Equal(t, 0, notifier.count(order.OrderNumber))
}

func TestWebhookUnknownSessionFailsSoProcessorRetries(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)

	body := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_ghost", Status: "complete", PaymentStatus: SessionPaymentPaid,
	})
	w := deliver(r, signedRequest(body))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookExpiredSessionCancelsPendingOrder(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)
	order := createPendingOrder(t, db, "ORD-20250831-AAAA0006", "cs_exp")

	body := eventBody(t, EventCheckoutSessionExpired, CheckoutSession{
		ID: "cs_exp", Status: SessionStatusExpired, PaymentStatus: SessionPaymentUnpaid,
	})
	w := deliver(r, signedRequest(body))
	require.Equal(t, http.StatusOK, w.Code)

	var after models.Order
	require.NoError(t, db.First(&after, order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, after.Status)
	assert.Equal(t, models.PaymentStatusFailed, after.PaymentStatus)
	assert.Equal(t, 0, notifier.count(order.OrderNumber))
}

func TestWebhookExpiredSessionDoesNotTouchConfirmedOrder(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	r := newWebhookRouter(db, notifier)
	order := createPendingOrder(t, db, "ORD-20250831-AAAA0007", "cs_late_exp")

	paid := eventBody(t, EventCheckoutSessionCompleted, CheckoutSession{
		ID: "cs_late_exp", Status: "complete", PaymentStatus: SessionPaymentPaid, PaymentIntentID: "pi_7",
	})
	require.Equal(t, http.StatusOK, deliver(r, signedRequest(paid)).Code)

	expired := eventBody(t, EventCheckoutSessionExpired, CheckoutSession{
		ID: "cs_late_exp", Status: SessionStatusExpired,
	})
	require.Equal(t, http.StatusOK, deliver(r, signedRequest(expired)).Code)

	var after models.Order
	require.NoError(t, db.First(&after, order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, after.Status)
	assert.Equal(t, 1, notifier.count(order.OrderNumber))
}
