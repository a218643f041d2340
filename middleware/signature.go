package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the webhook signature as "t=<unix>,v1=<hex hmac>".
// The signed payload is "<t>.<raw body>".
const SignatureHeader = "Webhook-Signature"

const rawBodyKey = "webhook_raw_body"

// signatureTolerance bounds replay of captured payloads.
const signatureTolerance = 5 * time.Minute

// VerifyWebhookSignature authenticates the processor's webhook against the
// shared secret. The HMAC is computed over the raw, unparsed request body;
// nothing downstream may touch the payload before this check passes.
func VerifyWebhookSignature(secret string) gin.HandlerFunc {
	if secret == "" {
		panic("PAYMENT_WEBHOOK_SECRET is not set")
	}

	return func(c *gin.Context) {
		header := c.GetHeader(SignatureHeader)
		if header == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing webhook signature"})
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		timestamp, provided, err := parseSignatureHeader(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature timestamp"})
			c.Abort()
			return
		}
		if age := time.Since(time.Unix(ts, 0)); age > signatureTolerance || age < -signatureTolerance {
			log.Printf("❌ Webhook signature timestamp outside tolerance (%s)", time.Unix(ts, 0))
			c.JSON(http.StatusBadRequest, gin.H{"error": "signature timestamp outside tolerance"})
			c.Abort()
			return
		}

		expected := ComputeSignature(secret, timestamp, body)
		if !hmac.Equal([]byte(expected), []byte(strings.ToLower(provided))) {
			log.Printf("❌ Webhook signature mismatch from %s", c.ClientIP())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Set(rawBodyKey, body)
		c.Next()
	}
}

// ComputeSignature returns the hex HMAC-SHA256 of "<timestamp>.<body>".
func ComputeSignature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// RawBody returns the verified webhook payload stored by
// VerifyWebhookSignature.
func RawBody(c *gin.Context) ([]byte, bool) {
	v, ok := c.Get(rawBodyKey)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

func parseSignatureHeader(header string) (timestamp, signature string, err error) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}
	if timestamp == "" || signature == "" {
		return "", "", fmt.Errorf("malformed signature header")
	}
	return timestamp, signature, nil
}
