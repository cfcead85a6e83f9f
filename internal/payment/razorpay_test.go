package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eshop-service/internal/errs"
)

func TestCreatePaymentLink(t *testing.T) {
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_links", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "secret_test", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":        "plink_123",
			"short_url": "https://rzp.io/l/abc",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "secret_test", 5*time.Second)
	resp, err := client.CreatePaymentLink(context.Background(), LinkRequest{
		AmountPaise:   249900,
		CustomerName:  "A Shopper",
		CustomerEmail: "a@x.com",
		CallbackURL:   "http://localhost:3000/payment-success/42",
	})
	require.NoError(t, err)
	assert.Equal(t, "plink_123", resp.LinkID)
	assert.Equal(t, "https://rzp.io/l/abc", resp.ShortURL)

	assert.Equal(t, float64(249900), gotBody["amount"])
	assert.Equal(t, "INR", gotBody["currency"])
	assert.Equal(t, "get", gotBody["callback_method"])
	assert.Equal(t, "http://localhost:3000/payment-success/42", gotBody["callback_url"])

	customer := gotBody["customer"].(map[string]interface{})
	assert.Equal(t, "A Shopper", customer["name"])
	assert.Equal(t, "a@x.com", customer["email"])

	notify := gotBody["notify"].(map[string]interface{})
	assert.Equal(t, true, notify["email"])
}

func TestFetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/pay_42", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pay_42",
			"status": "captured",
			"amount": 249900,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "secret_test", 5*time.Second)
	result, err := client.FetchPayment(context.Background(), "pay_42")
	require.NoError(t, err)
	assert.True(t, result.Captured())
	assert.Equal(t, int64(249900), result.Amount)
}

func TestFetchPaymentNotCaptured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pay_42",
			"status": "failed",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "secret_test", 5*time.Second)
	result, err := client.FetchPayment(context.Background(), "pay_42")
	require.NoError(t, err)
	assert.False(t, result.Captured())
}

func TestProviderTimeoutSurfacesAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "secret_test", 50*time.Millisecond)
	_, err := client.CreatePaymentLink(context.Background(), LinkRequest{AmountPaise: 100})
	require.Error(t, err)
	assert.Equal(t, errs.KindProviderUnavailable, errs.KindOf(err))
	assert.Equal(t, "PAYMENT_PROVIDER_UNREACHABLE", errs.CodeOf(err))
}

func TestProvider5xxSurfacesAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "secret_test", 5*time.Second)
	_, err := client.FetchPayment(context.Background(), "pay_42")
	require.Error(t, err)
	assert.Equal(t, errs.KindProviderUnavailable, errs.KindOf(err))
}

func TestProvider4xxIsNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "secret_test", 5*time.Second)
	_, err := client.FetchPayment(context.Background(), "pay_42")
	require.Error(t, err)
	assert.NotEqual(t, errs.KindProviderUnavailable, errs.KindOf(err))
}
