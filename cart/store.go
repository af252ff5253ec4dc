// Package cart implements the per-session cart store. Lines keep insertion
// order; subtotal, tax, shipping, and total are recomputed from the lines on
// every read.
package cart

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

// TaxPolicy and ShippingPolicy are pure functions of the subtotal. Real
// destination-aware policies plug in here.
type (
	TaxPolicy      func(subtotal float64) float64
	ShippingPolicy func(subtotal float64) float64
)

// DefaultTax charges a flat 10% on non-empty carts.
func DefaultTax(subtotal float64) float64 {
	if subtotal <= 0 {
		return 0
	}
	return roundCents(subtotal * 0.10)
}

// DefaultShipping charges a flat fee on non-empty carts.
func DefaultShipping(subtotal float64) float64 {
	if subtotal <= 0 {
		return 0
	}
	return 5.99
}

type line struct {
	product  contractx.Product
	quantity int
}

type record struct {
	lines     []line
	createdAt time.Time
	updatedAt time.Time
}

type Store struct {
	mu    sync.Mutex
	carts map[string]*record

	tax      TaxPolicy
	shipping ShippingPolicy
	now      func() time.Time
}

type Option func(*Store)

func WithTaxPolicy(p TaxPolicy) Option {
	return func(s *Store) {
		if p != nil {
			s.tax = p
		}
	}
}

func WithShippingPolicy(p ShippingPolicy) Option {
	return func(s *Store) {
		if p != nil {
			s.shipping = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		carts:    make(map[string]*record),
		tax:      DefaultTax,
		shipping: DefaultShipping,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Get(ctx context.Context, sessionID string) (contractx.Cart, error) {
	sessionID, err := normalizeSession(sessionID)
	if err != nil {
		return contractx.Cart{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(sessionID, s.ensure(sessionID)), nil
}

// Add merges quantity into an existing line for the same product or appends
// a new line.
func (s *Store) Add(ctx context.Context, sessionID string, product contractx.Product, quantity int) (contractx.Cart, error) {
	sessionID, err := normalizeSession(sessionID)
	if err != nil {
		return contractx.Cart{}, err
	}
	if product.ID == "" {
		return contractx.Cart{}, fmt.Errorf("%w: product id is empty", contractx.ErrValidation)
	}
	if quantity < 1 {
		return contractx.Cart{}, fmt.Errorf("%w: quantity must be >= 1", contractx.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.ensure(sessionID)
	for i := range rec.lines {
		if rec.lines[i].product.ID == product.ID {
			rec.lines[i].quantity += quantity
			rec.updatedAt = s.now().UTC()
			return s.snapshot(sessionID, rec), nil
		}
	}
	rec.lines = append(rec.lines, line{product: product, quantity: quantity})
	rec.updatedAt = s.now().UTC()
	return s.snapshot(sessionID, rec), nil
}

// Update sets the quantity of an existing line, removing it when the new
// quantity is <= 0. A line is never stored with quantity zero.
func (s *Store) Update(ctx context.Context, sessionID, productID string, quantity int) (contractx.Cart, error) {
	sessionID, err := normalizeSession(sessionID)
	if err != nil {
		return contractx.Cart{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.ensure(sessionID)
	for i := range rec.lines {
		if rec.lines[i].product.ID != productID {
			continue
		}
		if quantity <= 0 {
			rec.lines = append(rec.lines[:i], rec.lines[i+1:]...)
		} else {
			rec.lines[i].quantity = quantity
		}
		rec.updatedAt = s.now().UTC()
		return s.snapshot(sessionID, rec), nil
	}
	return contractx.Cart{}, fmt.Errorf("%w: product %q is not in the cart", contractx.ErrNotFound, productID)
}

// Remove drops the line for productID. Removing an absent line is a no-op.
func (s *Store) Remove(ctx context.Context, sessionID, productID string) (contractx.Cart, error) {
	sessionID, err := normalizeSession(sessionID)
	if err != nil {
		return contractx.Cart{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.ensure(sessionID)
	for i := range rec.lines {
		if rec.lines[i].product.ID == productID {
			rec.lines = append(rec.lines[:i], rec.lines[i+1:]...)
			rec.updatedAt = s.now().UTC()
			break
		}
	}
	return s.snapshot(sessionID, rec), nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) (contractx.Cart, error) {
	sessionID, err := normalizeSession(sessionID)
	if err != nil {
		return contractx.Cart{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.ensure(sessionID)
	rec.lines = nil
	rec.updatedAt = s.now().UTC()
	return s.snapshot(sessionID, rec), nil
}

func (s *Store) ensure(sessionID string) *record {
	rec, ok := s.carts[sessionID]
	if !ok {
		now := s.now().UTC()
		rec = &record{createdAt: now, updatedAt: now}
		s.carts[sessionID] = rec
	}
	return rec
}

func (s *Store) snapshot(sessionID string, rec *record) contractx.Cart {
	cart := contractx.Cart{
		SessionID: sessionID,
		Items:     make([]contractx.CartItem, 0, len(rec.lines)),
		CreatedAt: rec.createdAt,
		UpdatedAt: rec.updatedAt,
	}
	for _, l := range rec.lines {
		cart.Items = append(cart.Items, contractx.CartItem{
			Product:   l.product,
			Quantity:  l.quantity,
			ItemTotal: roundCents(l.product.Price * float64(l.quantity)),
		})
	}
	cart.Subtotal = Subtotal(cart.Items)
	cart.Tax = s.tax(cart.Subtotal)
	cart.Shipping = s.shipping(cart.Subtotal)
	cart.Total = roundCents(cart.Subtotal + cart.Tax + cart.Shipping)
	return cart
}

// Subtotal recomputes the items sum; usable on any cart snapshot, including
// ones reconstructed from serialized form.
func Subtotal(items []contractx.CartItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Product.Price * float64(item.Quantity)
	}
	return roundCents(sum)
}

func normalizeSession(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	}
	return sessionID, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
