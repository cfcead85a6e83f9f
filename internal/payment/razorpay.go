package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"eshop-service/internal/errs"
)

// PaymentStatusCaptured is the provider-side status meaning money moved.
const PaymentStatusCaptured = "captured"

// Client talks to the Razorpay REST API.
type Client interface {
	// CreatePaymentLink creates a hosted payment link. Amount is in
	// paise. Returns the provider link id and the short URL.
	CreatePaymentLink(ctx context.Context, req LinkRequest) (*LinkResponse, error)
	// FetchPayment retrieves a payment by id to verify its status.
	FetchPayment(ctx context.Context, paymentID string) (*PaymentResult, error)
}

// LinkRequest describes a payment link to create.
type LinkRequest struct {
	AmountPaise   int64
	CustomerName  string
	CustomerEmail string
	CallbackURL   string
}

// LinkResponse is the subset of the provider response we keep.
type LinkResponse struct {
	LinkID   string
	ShortURL string
}

// PaymentResult is the verification view of a provider payment.
type PaymentResult struct {
	PaymentID string
	Status    string
	Amount    int64
}

// Captured reports whether the provider settled the payment.
func (p *PaymentResult) Captured() bool {
	return p.Status == PaymentStatusCaptured
}

type razorpayClient struct {
	httpClient *http.Client
	baseURL    string
	key        string
	secret     string
}

// NewClient creates a Razorpay client with a bounded request timeout.
// Transport failures and 5xx responses surface as PROVIDER_UNAVAILABLE.
func NewClient(baseURL, key, secret string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &razorpayClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		key:        key,
		secret:     secret,
	}
}

type linkRequestBody struct {
	Amount         int64        `json:"amount"`
	Currency       string       `json:"currency"`
	Customer       customerBody `json:"customer"`
	Notify         notifyBody   `json:"notify"`
	CallbackURL    string       `json:"callback_url"`
	CallbackMethod string       `json:"callback_method"`
}

type customerBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type notifyBody struct {
	Email bool `json:"email"`
}

type linkResponseBody struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
}

type paymentResponseBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

func (c *razorpayClient) CreatePaymentLink(ctx context.Context, req LinkRequest) (*LinkResponse, error) {
	payload := linkRequestBody{
		Amount:   req.AmountPaise,
		Currency: "INR",
		Customer: customerBody{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
		},
		Notify:         notifyBody{Email: true},
		CallbackURL:    req.CallbackURL,
		CallbackMethod: "get",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal link request: %w", err)
	}

	var resp linkResponseBody
	if err := c.do(ctx, http.MethodPost, "/v1/payment_links", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}

	return &LinkResponse{LinkID: resp.ID, ShortURL: resp.ShortURL}, nil
}

func (c *razorpayClient) FetchPayment(ctx context.Context, paymentID string) (*PaymentResult, error) {
	var resp paymentResponseBody
	path := fmt.Sprintf("/v1/payments/%s", paymentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return &PaymentResult{
		PaymentID: resp.ID,
		Status:    resp.Status,
		Amount:    resp.Amount,
	}, nil
}

func (c *razorpayClient) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new provider request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return errs.Wrap(errs.KindProviderUnavailable, "PAYMENT_PROVIDER_UNREACHABLE",
				"payment provider timed out", err)
		}
		return errs.Wrap(errs.KindProviderUnavailable, "PAYMENT_PROVIDER_UNREACHABLE",
			"payment provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		b, _ := io.ReadAll(resp.Body)
		return errs.Wrap(errs.KindProviderUnavailable, "PAYMENT_PROVIDER_UNREACHABLE",
			"payment provider error", fmt.Errorf("provider %d: %s", resp.StatusCode, string(b)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("provider error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
