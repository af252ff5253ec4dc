package chatnode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	gatex "github.com/pattarin-dev/shopflow/agent/gate"
)

const (
	actionApology  = "Sorry, I ran into a problem preparing that. Please try again in a moment."
	conflictReply  = "You already have an action waiting for a yes or no. Please confirm or cancel it first."
	notFoundReply  = "I couldn't find that product in our catalog. Could you tell me a bit more about what you're looking for?"
	emptyCartReply = "Your cart is empty, so there is nothing to check out yet. Want me to find something for you?"
)

// CheckoutDefaults fills contact fields the classifier could not extract.
type CheckoutDefaults struct {
	SuccessURL string
	CancelURL  string
}

// ProposeAction turns a mutating verdict into a pending action behind the
// confirmation gate. Nothing here touches the cart or the payment provider;
// that only happens on an explicit confirm.
func ProposeAction(
	ctx context.Context,
	in *GraphState,
	catalog contractx.CatalogGateway,
	gate *gatex.Gate,
	defaults CheckoutDefaults,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	var action *contractx.PendingAction
	switch in.Verdict.Action {
	case contractx.ActionAddToCart:
		product, found, err := resolveProduct(ctx, catalog, in.Verdict)
		if err != nil {
			log.Warn().Err(err).Str("session_id", in.SessionID).Msg("product lookup failed, degrading to apology")
			in.Apology = true
			in.Message = actionApology
			return in, nil
		}
		if !found {
			in.Message = notFoundReply
			return in, nil
		}
		action = &contractx.PendingAction{
			ID:        uuid.NewString(),
			Kind:      contractx.ActionAddToCart,
			SessionID: in.SessionID,
			CreatedAt: in.Now,
			AddToCart: &contractx.AddToCartPayload{
				ProductID:   product.ID,
				ProductName: product.Name,
				UnitPrice:   product.Price,
				Quantity:    in.Verdict.Quantity,
			},
		}

	case contractx.ActionCheckout:
		if in.Cart.IsEmpty() {
			in.Message = emptyCartReply
			return in, nil
		}
		successURL := in.Verdict.SuccessURL
		if successURL == "" {
			successURL = defaults.SuccessURL
		}
		cancelURL := in.Verdict.CancelURL
		if cancelURL == "" {
			cancelURL = defaults.CancelURL
		}
		action = &contractx.PendingAction{
			ID:        uuid.NewString(),
			Kind:      contractx.ActionCheckout,
			SessionID: in.SessionID,
			CreatedAt: in.Now,
			Checkout: &contractx.CheckoutPayload{
				Cart:       in.Cart,
				Email:      in.Verdict.Email,
				SuccessURL: successURL,
				CancelURL:  cancelURL,
			},
		}

	default:
		return nil, fmt.Errorf("%w: unsupported action=%q", contractx.ErrValidation, in.Verdict.Action)
	}

	if err := gate.Propose(ctx, in.SessionID, action); err != nil {
		if errors.Is(err, contractx.ErrConflict) {
			in.Message = conflictReply
			return in, nil
		}
		return nil, err
	}

	in.Pending = action
	in.Message = confirmationPrompt(action, in.Cart)
	return in, nil
}

func resolveProduct(ctx context.Context, catalog contractx.CatalogGateway, verdict contractx.ClassifyResult) (contractx.Product, bool, error) {
	if id := strings.TrimSpace(verdict.ProductID); id != "" {
		details, err := catalog.Get(ctx, id)
		if err == nil {
			return details.Product, true, nil
		}
		if !errors.Is(err, contractx.ErrNotFound) {
			return contractx.Product{}, false, err
		}
		// Stale or hallucinated id, fall back to a name search.
	}

	query := strings.TrimSpace(verdict.Query)
	if query == "" {
		return contractx.Product{}, false, nil
	}
	products, _, err := catalog.Search(ctx, query, contractx.SearchFilters{}, 1, 1)
	if err != nil {
		return contractx.Product{}, false, err
	}
	if len(products) == 0 {
		return contractx.Product{}, false, nil
	}
	return products[0], true, nil
}

func confirmationPrompt(action *contractx.PendingAction, cart contractx.Cart) string {
	switch action.Kind {
	case contractx.ActionAddToCart:
		p := action.AddToCart
		return fmt.Sprintf("I'd like to add %d x %s ($%.2f each) to your cart. Should I go ahead?", p.Quantity, p.ProductName, p.UnitPrice)
	case contractx.ActionCheckout:
		items := 0
		for _, it := range cart.Items {
			items += it.Quantity
		}
		return fmt.Sprintf("Ready to check out %d item(s) for a total of $%.2f. Shall I create your secure payment link?", items, cart.Total)
	default:
		return "Should I go ahead with that?"
	}
}
