// Package stripe is a minimal client for Stripe hosted checkout sessions.
// Only the endpoints this service consumes are implemented.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com"

type Config struct {
	SecretKey string        `split_words:"true" required:"true"`
	BaseURL   string        `split_words:"true" default:"https://api.stripe.com"`
	Timeout   time.Duration `split_words:"true" default:"15s"`
}

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid stripe base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// LineItem is one hosted-checkout line. Amounts are integer cents.
type LineItem struct {
	Name        string
	Description string
	AmountCents int64
	Quantity    int
}

type CheckoutParams struct {
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	LineItems     []LineItem
	Metadata      map[string]string
}

// CheckoutSession is the subset of Stripe's checkout.session object we use.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckoutSession creates a hosted payment page and returns its id and
// redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error) {
	if strings.TrimSpace(params.SuccessURL) == "" || strings.TrimSpace(params.CancelURL) == "" {
		return CheckoutSession{}, errors.New("success and cancel urls are required")
	}
	if len(params.LineItems) == 0 {
		return CheckoutSession{}, errors.New("at least one line item is required")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	if email := strings.TrimSpace(params.CustomerEmail); email != "" {
		form.Set("customer_email", email)
	}
	form.Set("success_url", strings.TrimSpace(params.SuccessURL))
	form.Set("cancel_url", strings.TrimSpace(params.CancelURL))
	form.Set("payment_method_types[0]", "card")

	for i, item := range params.LineItems {
		if item.AmountCents < 0 {
			return CheckoutSession{}, fmt.Errorf("line item %d has a negative amount", i)
		}
		if item.Quantity < 1 {
			return CheckoutSession{}, fmt.Errorf("line item %d has quantity < 1", i)
		}
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	for k, v := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var session CheckoutSession
	if err := c.post(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return CheckoutSession{}, err
	}
	return session, nil
}

// GetCheckoutSession retrieves a checkout session, e.g. to verify payment
// status after redirect.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CheckoutSession{}, errors.New("checkout session id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("build stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return CheckoutSession{}, err
	}
	return session, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute stripe request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read stripe response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr apiError
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("stripe: %s (status=%d)", apiErr.Error.Message, resp.StatusCode)
		}
		return fmt.Errorf("stripe: http status=%d body=%s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}
	return nil
}
