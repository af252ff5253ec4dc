// Package tool is the typed capability boundary between the agent and the
// catalog/cart/checkout collaborators. Each tool declares input and output
// types; failures are uniformly recoverable for the caller, never fatal.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

const (
	ToolCatalogSearch  = "catalog.search"
	ToolCatalogGet     = "catalog.get"
	ToolCatalogRelated = "catalog.related"
	ToolCartAdd        = "cart.add"
	ToolCartUpdate     = "cart.update"
	ToolCartRemove     = "cart.remove"
	ToolCheckoutCreate = "checkout.create"
)

type SearchInput struct {
	Query    string                  `json:"query"`
	Filters  contractx.SearchFilters `json:"filters,omitempty"`
	Page     int                     `json:"page,omitempty"`
	PageSize int                     `json:"page_size,omitempty"`
}

type SearchOutput struct {
	Products []contractx.Product `json:"products"`
	Total    int                 `json:"total"`
}

type GetProductInput struct {
	ProductID string `json:"product_id"`
}

type RelatedInput struct {
	ProductID string `json:"product_id"`
	Limit     int    `json:"limit,omitempty"`
}

type CartMutateInput struct {
	SessionID string `json:"session_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity,omitempty"`
}

type CheckoutCreateInput struct {
	Payload contractx.CheckoutPayload `json:"payload"`
}

// Gateway wires the tool set to its collaborators. The generic Execute
// entry point serves the orchestrator's read paths; the confirmation gate
// and the direct cart shortcut call the typed methods.
type Gateway struct {
	catalog  contractx.CatalogGateway
	cart     contractx.CartStore
	checkout contractx.CheckoutGateway
}

func NewGateway(catalog contractx.CatalogGateway, cartStore contractx.CartStore, checkoutGW contractx.CheckoutGateway) (*Gateway, error) {
	if catalog == nil {
		return nil, errors.New("catalog gateway is required")
	}
	if cartStore == nil {
		return nil, errors.New("cart store is required")
	}
	if checkoutGW == nil {
		return nil, errors.New("checkout gateway is required")
	}
	return &Gateway{catalog: catalog, cart: cartStore, checkout: checkoutGW}, nil
}

func (g *Gateway) Search(ctx context.Context, in SearchInput) (SearchOutput, error) {
	products, total, err := g.catalog.Search(ctx, in.Query, in.Filters, in.Page, in.PageSize)
	if err != nil {
		return SearchOutput{}, fmt.Errorf("%w: catalog search: %v", contractx.ErrUpstream, err)
	}
	return SearchOutput{Products: products, Total: total}, nil
}

func (g *Gateway) GetProduct(ctx context.Context, in GetProductInput) (contractx.ProductDetails, error) {
	details, err := g.catalog.Get(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return contractx.ProductDetails{}, err
		}
		return contractx.ProductDetails{}, fmt.Errorf("%w: catalog get: %v", contractx.ErrUpstream, err)
	}
	return details, nil
}

func (g *Gateway) Related(ctx context.Context, in RelatedInput) ([]contractx.Product, error) {
	products, err := g.catalog.Related(ctx, in.ProductID, in.Limit)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: catalog related: %v", contractx.ErrUpstream, err)
	}
	return products, nil
}

// CartAdd validates the product against the catalog before touching the
// cart, so a stale pending action cannot insert an unknown product.
func (g *Gateway) CartAdd(ctx context.Context, in CartMutateInput) (contractx.Cart, error) {
	details, err := g.GetProduct(ctx, GetProductInput{ProductID: in.ProductID})
	if err != nil {
		return contractx.Cart{}, err
	}
	return g.cart.Add(ctx, in.SessionID, details.Product, in.Quantity)
}

func (g *Gateway) CartUpdate(ctx context.Context, in CartMutateInput) (contractx.Cart, error) {
	return g.cart.Update(ctx, in.SessionID, in.ProductID, in.Quantity)
}

func (g *Gateway) CartRemove(ctx context.Context, in CartMutateInput) (contractx.Cart, error) {
	return g.cart.Remove(ctx, in.SessionID, in.ProductID)
}

func (g *Gateway) CreateCheckout(ctx context.Context, in CheckoutCreateInput) (contractx.CheckoutResult, error) {
	return g.checkout.CreateCheckout(ctx, in.Payload)
}

// Execute dispatches a named tool request with loosely-typed args. Argument
// decode failures and unknown tools are reported in ToolResult.Error, not as
// Go errors; callers treat every tool failure the same recoverable way.
func (g *Gateway) Execute(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	run := func(out any, err error) (contractx.ToolResult, error) {
		if err != nil {
			return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}, err
		}
		return contractx.ToolResult{Tool: req.Tool, Result: out}, nil
	}

	switch req.Tool {
	case ToolCatalogSearch:
		var in SearchInput
		if err := decodeArgs(req.Args, &in); err != nil {
			return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}, err
		}
		out, err := g.Search(ctx, in)
		return run(out, err)
	case ToolCatalogGet:
		var in GetProductInput
		if err := decodeArgs(req.Args, &in); err != nil {
			return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}, err
		}
		out, err := g.GetProduct(ctx, in)
		return run(out, err)
	case ToolCatalogRelated:
		var in RelatedInput
		if err := decodeArgs(req.Args, &in); err != nil {
			return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}, err
		}
		out, err := g.Related(ctx, in)
		return run(out, err)
	default:
		err := fmt.Errorf("%w: unknown tool %q", contractx.ErrValidation, req.Tool)
		return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}, err
	}
}

func decodeArgs(args map[string]any, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: encode tool args: %v", contractx.ErrValidation, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode tool args: %v", contractx.ErrValidation, err)
	}
	return nil
}
