// Package checkout adapts the Stripe hosted-checkout client to the
// contract.CheckoutGateway consumed by the confirmation gate.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	stripex "github.com/pattarin-dev/shopflow/pkg/stripe"
)

type Gateway struct {
	client *stripex.Client
}

func NewGateway(client *stripex.Client) (*Gateway, error) {
	if client == nil {
		return nil, errors.New("stripe client is required")
	}
	return &Gateway{client: client}, nil
}

func (g *Gateway) CreateCheckout(ctx context.Context, payload contractx.CheckoutPayload) (contractx.CheckoutResult, error) {
	if err := validatePayload(payload); err != nil {
		return contractx.CheckoutResult{}, err
	}

	session, err := g.client.CreateCheckoutSession(ctx, stripex.CheckoutParams{
		CustomerEmail: payload.Email,
		SuccessURL:    payload.SuccessURL,
		CancelURL:     payload.CancelURL,
		LineItems:     lineItems(payload.Cart),
		Metadata: map[string]string{
			"session_id": payload.Cart.SessionID,
		},
	})
	if err != nil {
		return contractx.CheckoutResult{}, fmt.Errorf("%w: create checkout session: %v", contractx.ErrUpstream, err)
	}

	return contractx.CheckoutResult{
		CheckoutID:  session.ID,
		CheckoutURL: session.URL,
	}, nil
}

func validatePayload(payload contractx.CheckoutPayload) error {
	if payload.Cart.IsEmpty() {
		return fmt.Errorf("%w: cart is empty", contractx.ErrValidation)
	}
	if strings.TrimSpace(payload.SuccessURL) == "" || strings.TrimSpace(payload.CancelURL) == "" {
		return fmt.Errorf("%w: success and cancel urls are required", contractx.ErrValidation)
	}
	return nil
}

// lineItems maps cart lines to Stripe line items, with tax and shipping as
// their own lines. Stripe amounts are integer cents.
func lineItems(c contractx.Cart) []stripex.LineItem {
	items := make([]stripex.LineItem, 0, len(c.Items)+2)
	for _, item := range c.Items {
		items = append(items, stripex.LineItem{
			Name:        item.Product.Name,
			Description: item.Product.Description,
			AmountCents: cents(item.Product.Price),
			Quantity:    item.Quantity,
		})
	}
	if c.Tax > 0 {
		items = append(items, stripex.LineItem{
			Name:        "Tax",
			Description: "Sales tax",
			AmountCents: cents(c.Tax),
			Quantity:    1,
		})
	}
	if c.Shipping > 0 {
		items = append(items, stripex.LineItem{
			Name:        "Shipping",
			Description: "Shipping fee",
			AmountCents: cents(c.Shipping),
			Quantity:    1,
		})
	}
	return items
}

func cents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}
