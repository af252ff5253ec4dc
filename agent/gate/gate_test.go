package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	statex "github.com/pattarin-dev/shopflow/agent/state"
	toolx "github.com/pattarin-dev/shopflow/agent/tool"
	cartx "github.com/pattarin-dev/shopflow/cart"
	catalogx "github.com/pattarin-dev/shopflow/catalog"
)

type fakeCheckout struct {
	result contractx.CheckoutResult
	err    error
	calls  int
}

func (f *fakeCheckout) CreateCheckout(ctx context.Context, payload contractx.CheckoutPayload) (contractx.CheckoutResult, error) {
	f.calls++
	if f.err != nil {
		return contractx.CheckoutResult{}, f.err
	}
	return f.result, nil
}

type gateFixture struct {
	gate     *Gate
	sessions *statex.Manager
	carts    *cartx.Store
	checkout *fakeCheckout
}

func newFixture(t *testing.T) *gateFixture {
	t.Helper()

	sessions, err := statex.NewManager(statex.NewMemoryStore(statex.MemoryConfig{}))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	carts := cartx.NewStore()
	checkout := &fakeCheckout{result: contractx.CheckoutResult{CheckoutID: "cs_123", CheckoutURL: "https://pay.example/cs_123"}}

	tools, err := toolx.NewGateway(catalogx.NewMemory(catalogx.SeedProducts()), carts, checkout)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	g, err := New(sessions, tools)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &gateFixture{gate: g, sessions: sessions, carts: carts, checkout: checkout}
}

func addToCartAction(sessionID, productID string, qty int) *contractx.PendingAction {
	return &contractx.PendingAction{
		ID:        "act-" + productID,
		Kind:      contractx.ActionAddToCart,
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
		AddToCart: &contractx.AddToCartPayload{
			ProductID:   productID,
			ProductName: "Budget Gaming Laptop",
			UnitPrice:   799.99,
			Quantity:    qty,
		},
	}
}

func checkoutAction(sessionID string, cart contractx.Cart) *contractx.PendingAction {
	return &contractx.PendingAction{
		ID:        "act-checkout",
		Kind:      contractx.ActionCheckout,
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
		Checkout: &contractx.CheckoutPayload{
			Cart:       cart,
			Email:      "shopper@example.com",
			SuccessURL: "https://shop.example/success",
			CancelURL:  "https://shop.example/cancel",
		},
	}
}

func TestConfirmExecutesExactlyOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.gate.Propose(ctx, "s1", addToCartAction("s1", "p1001", 1)); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	res, err := f.gate.Resolve(ctx, "s1", true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.Confirmed || res.Cart == nil {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if len(res.Cart.Items) != 1 || res.Cart.Items[0].Quantity != 1 {
		t.Fatalf("unexpected cart: %+v", res.Cart.Items)
	}
	if res.Cart.Items[0].ItemTotal != 799.99 {
		t.Fatalf("item_total = %v, want 799.99", res.Cart.Items[0].ItemTotal)
	}

	// A retried confirm must find nothing pending and change nothing.
	if _, err := f.gate.Resolve(ctx, "s1", true); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on retried confirm, got %v", err)
	}
	cart, err := f.carts.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 1 {
		t.Fatalf("retried confirm mutated the cart: %+v", cart.Items)
	}
}

func TestCancelNeverChangesCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.gate.Propose(ctx, "s1", addToCartAction("s1", "p1001", 2)); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	res, err := f.gate.Resolve(ctx, "s1", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Confirmed {
		t.Fatal("cancel must not report confirmed")
	}

	cart, err := f.carts.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !cart.IsEmpty() || cart.Total != 0 {
		t.Fatalf("cancel changed the cart: %+v", cart)
	}
}

func TestSecondProposeConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.carts.Add(ctx, "s1", contractx.Product{ID: "p1001", Name: "Budget Gaming Laptop", Price: 799.99}, 1)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := f.gate.Propose(ctx, "s1", checkoutAction("s1", cart)); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	err = f.gate.Propose(ctx, "s1", addToCartAction("s1", "p1004", 1))
	if !errors.Is(err, contractx.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The first proposal stays confirmable.
	res, err := f.gate.Resolve(ctx, "s1", true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Checkout == nil || res.Checkout.CheckoutID != "cs_123" {
		t.Fatalf("unexpected checkout result: %+v", res.Checkout)
	}
	if f.checkout.calls != 1 {
		t.Fatalf("expected one checkout call, got %d", f.checkout.calls)
	}
}

func TestCheckoutCancelIssuesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.carts.Add(ctx, "s1", contractx.Product{ID: "p1001", Name: "Budget Gaming Laptop", Price: 799.99}, 1)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := f.gate.Propose(ctx, "s1", checkoutAction("s1", cart)); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	res, err := f.gate.Resolve(ctx, "s1", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Checkout != nil {
		t.Fatal("cancel must not issue a checkout")
	}
	if f.checkout.calls != 0 {
		t.Fatalf("checkout gateway called %d times on cancel", f.checkout.calls)
	}

	after, err := f.carts.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if after.Total != cart.Total {
		t.Fatalf("cart total changed on cancel: %v -> %v", cart.Total, after.Total)
	}
}

func TestExecutionFailureLeavesSessionIdle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.checkout.err = contractx.ErrUpstream
	ctx := context.Background()

	cart, err := f.carts.Add(ctx, "s1", contractx.Product{ID: "p1001", Name: "Budget Gaming Laptop", Price: 799.99}, 1)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := f.gate.Propose(ctx, "s1", checkoutAction("s1", cart)); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	if _, err := f.gate.Resolve(ctx, "s1", true); !errors.Is(err, contractx.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	// Pending cleared, cart untouched: the session can immediately propose
	// again instead of being stuck awaiting confirmation.
	sess, err := f.sessions.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if sess.Pending != nil {
		t.Fatal("pending action must be cleared after a failed execution")
	}
	after, err := f.carts.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if after.Total != cart.Total {
		t.Fatalf("failed execution mutated the cart: %v -> %v", cart.Total, after.Total)
	}
}

func TestProposeNilAction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.gate.Propose(context.Background(), "s1", nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
