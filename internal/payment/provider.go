// Package payment is the narrow glue to the hosted checkout provider. The
// provider itself is a black box: we ask it for a redirect URL and later
// receive a signed webhook with the payment outcome.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CheckoutRequest describes the rental the customer is paying for.
type CheckoutRequest struct {
	UserID      string  `json:"user_id"`
	VehicleType string  `json:"vehicle_type"`
	VehicleID   string  `json:"vehicle_id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	TotalPrice  string  `json:"total_price"` // EUR
	Duration    float64 `json:"duration_hours"`
	EstimatedKm float64 `json:"estimated_km"`
	SuccessURL  string  `json:"success_url"`
	CancelURL   string  `json:"cancel_url"`
}

// CheckoutSession is the provider's answer: where to send the customer.
type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// Provider creates hosted checkout sessions.
type Provider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
}

type httpProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider returns a Provider talking to the configured checkout API.
func NewHTTPProvider(baseURL, apiKey string) Provider {
	return &httpProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *httpProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return CheckoutSession{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return CheckoutSession{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CheckoutSession{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CheckoutSession{}, fmt.Errorf("checkout provider returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return CheckoutSession{}, err
	}
	return session, nil
}

// VerifySignature checks the webhook HMAC-SHA256 signature over the raw body.
func VerifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
