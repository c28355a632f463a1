// Package client talks to the checkout HTTP API. It satisfies checkout.API
// so the same session logic drives both the CLI and tests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"food-checkout/internal/domain"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrServer marks a non-2xx response that maps to no domain kind.
var ErrServer = errors.New("server error")

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type messageBody struct {
	Message string `json:"message"`
}

func (c *Client) CreateOTP(ctx context.Context, email, name string) (string, error) {
	var out messageBody
	body := map[string]string{"email": email, "name": name}
	if err := c.do(ctx, http.MethodPost, "/api/createotp", body, &out, ErrServer); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) VerifyOTP(ctx context.Context, email string, code int) (string, error) {
	var out messageBody
	body := map[string]any{"email": email, "otp": code}
	if err := c.do(ctx, http.MethodPost, "/api/verifyotp", body, &out, domain.ErrOtpNotFound); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.PlaceOrderResult, error) {
	var out domain.PlaceOrderResult
	if err := c.do(ctx, http.MethodPost, "/api/placeorder", req, &out, ErrServer); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Restaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	var out domain.Restaurant
	path := "/api/restaurant?id=" + url.QueryEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, domain.ErrRestaurantNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, notFound error) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg messageBody
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		if msg.Message == "" {
			msg.Message = fmt.Sprintf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return &domain.Error{Kind: kindFor(resp.StatusCode, notFound), Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// kindFor inverts the server's status mapping. 404 is ambiguous across
// endpoints, so the caller names the kind it means.
func kindFor(status int, notFound error) error {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusUnauthorized:
		return domain.ErrOtpMismatch
	case http.StatusForbidden:
		return domain.ErrUnverified
	case http.StatusNotFound:
		return notFound
	case http.StatusGone:
		return domain.ErrOtpExpired
	case http.StatusBadGateway:
		return domain.ErrDelivery
	}
	return ErrServer
}
