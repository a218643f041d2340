package paymentControllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quantumclimb/curryhouse-api/config"
	"github.com/quantumclimb/curryhouse-api/models"
)

// Session payment states as reported by the processor.
const (
	SessionPaymentPaid   = "paid"
	SessionPaymentUnpaid = "unpaid"
	SessionStatusExpired = "expired"
)

// CheckoutSession is the processor's representation of one payment attempt.
type CheckoutSession struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	Status          string `json:"status"`         // open | complete | expired
	PaymentStatus   string `json:"payment_status"` // paid | unpaid
	PaymentIntentID string `json:"payment_intent"`
}

type SessionLineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
}

type createSessionRequest struct {
	Currency          string            `json:"currency"`
	LineItems         []SessionLineItem `json:"line_items"`
	SuccessURL        string            `json:"success_url"`
	CancelURL         string            `json:"cancel_url"`
	CustomerEmail     string            `json:"customer_email"`
	ClientReferenceID string            `json:"client_reference_id"`
}

type apiError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client talks to the hosted-checkout payment processor.
type Client struct {
	baseURL string
	apiKey  string
	cfg     *config.Config
	httpc   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	if cfg.Payment.APIURL == "" || cfg.Payment.APIKey == "" {
		panic("payment processor configuration missing")
	}
	return &Client{
		baseURL: cfg.Payment.APIURL,
		apiKey:  cfg.Payment.APIKey,
		cfg:     cfg,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// StartCheckout creates a checkout session for the order. The success URL
// carries the order number so the confirmation page can look the order up
// after the redirect.
func (c *Client) StartCheckout(order models.Order) (string, string, error) {
	lineItems := make([]SessionLineItem, 0, len(order.Items)+1)
	for _, item := range order.Items {
		name := item.Name
		if item.SpiceLevel != "" {
			name = fmt.Sprintf("%s (%s)", item.Name, item.SpiceLevel)
		}
		lineItems = append(lineItems, SessionLineItem{
			Name:       name,
			UnitAmount: item.UnitPriceCents,
			Quantity:   item.Quantity,
		})
	}
	if order.DeliveryFeeCents > 0 {
		lineItems = append(lineItems, SessionLineItem{
			Name:       "Delivery",
			UnitAmount: order.DeliveryFeeCents,
			Quantity:   1,
		})
	}

	session, err := c.CreateCheckoutSession(createSessionRequest{
		Currency:          c.cfg.Checkout.Currency,
		LineItems:         lineItems,
		SuccessURL:        fmt.Sprintf("%s?order=%s", c.cfg.Checkout.SuccessURL, order.OrderNumber),
		CancelURL:         c.cfg.Checkout.CancelURL,
		CustomerEmail:     order.CustomerEmail,
		ClientReferenceID: order.OrderNumber,
	})
	if err != nil {
		return "", "", err
	}
	return session.ID, session.URL, nil
}

// CreateCheckoutSession sends the create request and returns the session.
func (c *Client) CreateCheckoutSession(req createSessionRequest) (*CheckoutSession, error) {
	body, err := c.do(http.MethodPost, "/v1/checkout/sessions", req)
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse processor response: %v", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("processor returned empty checkout URL")
	}
	return &session, nil
}

// GetCheckoutSession fetches the processor's current view of a session.
// This is the source of truth reconciliation falls back to when the
// webhook never arrived.
func (c *Client) GetCheckoutSession(sessionID string) (*CheckoutSession, error) {
	body, err := c.do(http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse processor response: %v", err)
	}
	return &session, nil
}

func (c *Client) do(method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach payment processor: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("processor error: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("processor API error (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
