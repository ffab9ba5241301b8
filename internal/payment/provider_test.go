package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateCheckout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req CheckoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "25.00", req.TotalPrice)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CheckoutSession{
			SessionID:   "sess_1",
			RedirectURL: "https://pay.example.com/sess_1",
		})
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "test-key")
	session, err := provider.CreateCheckout(context.Background(), CheckoutRequest{TotalPrice: "25.00"})
	require.NoError(t, err)
	require.Equal(t, "sess_1", session.SessionID)
	require.Equal(t, "https://pay.example.com/sess_1", session.RedirectURL)
}

func TestCreateCheckout_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "test-key")
	_, err := provider.CreateCheckout(context.Background(), CheckoutRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"type":"payment.succeeded"}`)

	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	require.True(t, VerifySignature("whsec_test", body, good))
	require.False(t, VerifySignature("whsec_test", body, "deadbeef"))
	require.False(t, VerifySignature("whsec_other", body, good))
	require.False(t, VerifySignature("whsec_test", []byte("tampered"), good))
}
