package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
)

// Client is the HTTP adapter for the hosted payment processor.
type Client struct {
	Client    *http.Client
	BaseURL   string
	SecretKey string
	Logger    *slog.Logger
}

func New(baseURL, secretKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		Client:    &http.Client{Timeout: timeout},
		BaseURL:   baseURL,
		SecretKey: secretKey,
		Logger:    logger,
	}
}

type sessionRequest struct {
	AmountMinor   int64             `json:"amount_minor"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params policies.CheckoutParams) (policies.CheckoutSession, error) {
	var zero policies.CheckoutSession
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", sessionRequest{
		AmountMinor:   params.Amount.Amount,
		Currency:      params.Amount.Currency,
		Description:   params.Description,
		CustomerEmail: params.CustomerEmail,
		Metadata:      params.Metadata,
		SuccessURL:    params.SuccessURL,
		CancelURL:     params.CancelURL,
	}, &resp)
	if err != nil {
		return zero, err
	}
	if resp.ID == "" || resp.URL == "" {
		return zero, fault.New(fault.ServiceUnavailable, "payments_bad_response", "processor returned incomplete session")
	}
	return policies.CheckoutSession{SessionID: resp.ID, RedirectURL: resp.URL}, nil
}

type refundRequest struct {
	PaymentIntent string `json:"payment_intent"`
}

func (c *Client) Refund(ctx context.Context, paymentIntentID string) error {
	return c.do(ctx, http.MethodPost, "/v1/refunds", refundRequest{PaymentIntent: paymentIntentID}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+c.SecretKey)
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(request)
	if err != nil {
		return fault.Wrap(fault.ServiceUnavailable, "payments_unavailable", "payment processor unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("processor returned status %d: %s", resp.StatusCode, string(snippet))
		if c.Logger != nil {
			c.Logger.Error("payment processor request failed", "method", method, "path", path, "status", resp.StatusCode)
		}
		return fault.Wrap(fault.ServiceUnavailable, "payments_error", "payment processor request failed", err)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fault.Wrap(fault.ServiceUnavailable, "payments_bad_response", "processor response malformed", err)
	}
	return nil
}

var _ policies.PaymentsPort = (*Client)(nil)
