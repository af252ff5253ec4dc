package contract

import "context"

// CatalogGateway is the read-only product catalog. It holds no session state.
type CatalogGateway interface {
	Search(ctx context.Context, query string, filters SearchFilters, page, pageSize int) ([]Product, int, error)
	Get(ctx context.Context, productID string) (ProductDetails, error)
	Related(ctx context.Context, productID string, limit int) ([]Product, error)
}

// CartStore keeps per-session cart lines. Mutating calls are only ever made
// by the confirmation gate or the explicit direct-mutation shortcut, never by
// the orchestrator's conversational paths.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (Cart, error)
	Add(ctx context.Context, sessionID string, product Product, quantity int) (Cart, error)
	Update(ctx context.Context, sessionID, productID string, quantity int) (Cart, error)
	Remove(ctx context.Context, sessionID, productID string) (Cart, error)
	Clear(ctx context.Context, sessionID string) (Cart, error)
}

// CheckoutGateway creates a hosted-payment session for a cart snapshot.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, payload CheckoutPayload) (CheckoutResult, error)
}

type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResult, error)
}

// ReplyWriter turns search results into a conversational summary. Callers
// must treat failures as recoverable and fall back to a templated reply.
type ReplyWriter interface {
	Write(ctx context.Context, req ReplyRequest) (string, error)
}

type ToolGateway interface {
	Execute(ctx context.Context, req ToolRequest) (ToolResult, error)
}
