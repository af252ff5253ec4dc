// Package gate implements the human-in-the-loop confirmation gate. Every
// cart or payment mutation proposed by the agent passes through here, and
// only an explicit user confirmation executes it.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	statex "github.com/pattarin-dev/shopflow/agent/state"
	toolx "github.com/pattarin-dev/shopflow/agent/tool"
)

// Resolution reports the outcome of a confirm or cancel.
type Resolution struct {
	Confirmed bool                      `json:"confirmed"`
	Message   string                    `json:"message"`
	Action    *contractx.PendingAction  `json:"action,omitempty"`
	Cart      *contractx.Cart           `json:"cart,omitempty"`
	Checkout  *contractx.CheckoutResult `json:"checkout,omitempty"`
}

type Gate struct {
	sessions *statex.Manager
	tools    *toolx.Gateway
}

func New(sessions *statex.Manager, tools *toolx.Gateway) (*Gate, error) {
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	return &Gate{sessions: sessions, tools: tools}, nil
}

// Propose installs a pending action for the session. Conflict if one is
// already awaiting confirmation; the earlier proposal stays intact.
func (g *Gate) Propose(ctx context.Context, sessionID string, action *contractx.PendingAction) error {
	if action == nil {
		return fmt.Errorf("%w: pending action is nil", contractx.ErrValidation)
	}
	return g.sessions.SetPending(ctx, sessionID, action)
}

// Resolve consumes the session's pending action. The action is removed
// before execution, under the session lock, so no pending action can ever
// execute more than once: a retried confirm finds nothing pending and fails
// with NotFound. An execution failure leaves the cart untouched and the
// session Idle.
func (g *Gate) Resolve(ctx context.Context, sessionID string, confirmed bool) (Resolution, error) {
	action, err := g.sessions.TakePending(ctx, sessionID)
	if err != nil {
		return Resolution{}, err
	}

	if !confirmed {
		log.Info().Str("session_id", sessionID).Str("kind", string(action.Kind)).Msg("pending action cancelled")
		return Resolution{
			Confirmed: false,
			Message:   cancelMessage(action),
			Action:    action,
		}, nil
	}

	res, err := g.execute(ctx, sessionID, action)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Str("kind", string(action.Kind)).Msg("pending action execution failed")
		return Resolution{}, err
	}

	log.Info().Str("session_id", sessionID).Str("kind", string(action.Kind)).Msg("pending action executed")
	return res, nil
}

func (g *Gate) execute(ctx context.Context, sessionID string, action *contractx.PendingAction) (Resolution, error) {
	switch action.Kind {
	case contractx.ActionAddToCart:
		payload := action.AddToCart
		if payload == nil {
			return Resolution{}, fmt.Errorf("%w: add_to_cart action has no payload", contractx.ErrValidation)
		}
		updated, err := g.tools.CartAdd(ctx, toolx.CartMutateInput{
			SessionID: sessionID,
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{
			Confirmed: true,
			Message:   fmt.Sprintf("Added %d x %s to your cart.", payload.Quantity, payload.ProductName),
			Action:    action,
			Cart:      &updated,
		}, nil

	case contractx.ActionCheckout:
		payload := action.Checkout
		if payload == nil {
			return Resolution{}, fmt.Errorf("%w: checkout action has no payload", contractx.ErrValidation)
		}
		result, err := g.tools.CreateCheckout(ctx, toolx.CheckoutCreateInput{Payload: *payload})
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{
			Confirmed: true,
			Message:   "Checkout created. Redirecting you to the payment page.",
			Action:    action,
			Checkout:  &result,
		}, nil

	default:
		return Resolution{}, fmt.Errorf("%w: unknown action kind %q", contractx.ErrValidation, action.Kind)
	}
}

func cancelMessage(action *contractx.PendingAction) string {
	switch action.Kind {
	case contractx.ActionAddToCart:
		return "Okay, I won't add that to your cart."
	case contractx.ActionCheckout:
		return "Okay, checkout cancelled. Your cart is unchanged."
	default:
		return "Okay, the pending action has been discarded."
	}
}
