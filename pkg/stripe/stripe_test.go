package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{SecretKey: "sk_test_123", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Parallel()

	var gotForm map[string][]string
	var gotAuth, gotPath string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.stripe.com/pay/cs_test_1","payment_status":"unpaid"}`))
	})

	session, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		CustomerEmail: "shopper@example.com",
		SuccessURL:    "https://shop.example/success",
		CancelURL:     "https://shop.example/cancel",
		LineItems: []LineItem{
			{Name: "Budget Gaming Laptop", AmountCents: 79999, Quantity: 2},
			{Name: "Shipping", AmountCents: 599, Quantity: 1},
		},
		Metadata: map[string]string{"session_id": "s1"},
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession() error = %v", err)
	}
	if session.ID != "cs_test_1" {
		t.Fatalf("session id = %q", session.ID)
	}
	if !strings.Contains(session.URL, "cs_test_1") {
		t.Fatalf("session url = %q", session.URL)
	}

	if gotAuth != "Bearer sk_test_123" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPath != "/v1/checkout/sessions" {
		t.Fatalf("path = %q", gotPath)
	}
	expect := map[string]string{
		"mode":                                          "payment",
		"customer_email":                                "shopper@example.com",
		"line_items[0][price_data][unit_amount]":        "79999",
		"line_items[0][quantity]":                       "2",
		"line_items[1][price_data][product_data][name]": "Shipping",
		"metadata[session_id]":                          "s1",
	}
	for key, want := range expect {
		vals := gotForm[key]
		if len(vals) != 1 || vals[0] != want {
			t.Fatalf("form[%q] = %v, want %q", key, vals, want)
		}
	}
}

func TestCreateCheckoutSessionDecodesAPIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	})

	_, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		CustomerEmail: "shopper@example.com",
		SuccessURL:    "https://shop.example/success",
		CancelURL:     "https://shop.example/cancel",
		LineItems:     []LineItem{{Name: "Thing", AmountCents: 100, Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "Your card was declined.") {
		t.Fatalf("error does not carry the API message: %v", err)
	}
}

func TestCreateCheckoutSessionValidatesParams(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent for invalid params")
	})

	cases := []struct {
		name   string
		params CheckoutParams
	}{
		{
			name: "missing urls",
			params: CheckoutParams{
				CustomerEmail: "a@b.c",
				LineItems:     []LineItem{{Name: "x", AmountCents: 1, Quantity: 1}},
			},
		},
		{
			name:   "no line items",
			params: CheckoutParams{CustomerEmail: "a@b.c", SuccessURL: "https://s", CancelURL: "https://c"},
		},
		{
			name: "zero quantity",
			params: CheckoutParams{
				CustomerEmail: "a@b.c", SuccessURL: "https://s", CancelURL: "https://c",
				LineItems: []LineItem{{Name: "x", AmountCents: 1, Quantity: 0}},
			},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := client.CreateCheckoutSession(context.Background(), tc.params); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestCreateCheckoutSessionOmitsEmptyEmail(t *testing.T) {
	t.Parallel()

	var form map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_2","url":"https://checkout.stripe.com/pay/cs_test_2"}`))
	})

	_, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cancel",
		LineItems:  []LineItem{{Name: "Thing", AmountCents: 100, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession() error = %v", err)
	}
	if _, ok := form["customer_email"]; ok {
		t.Fatal("customer_email must be omitted when no email is known")
	}
}

func TestGetCheckoutSession(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions/cs_test_1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_1","url":"","payment_status":"paid"}`))
	})

	session, err := client.GetCheckoutSession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("GetCheckoutSession() error = %v", err)
	}
	if session.PaymentStatus != "paid" {
		t.Fatalf("payment_status = %q", session.PaymentStatus)
	}
}

func TestNewClientRequiresSecretKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected an error for a missing secret key")
	}
}
