// Package catalog provides the read-only product catalog gateway. The
// in-memory implementation is seeded with a fixed inventory; a search
// backend can be substituted behind contract.CatalogGateway.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

type Memory struct {
	products map[string]contractx.ProductDetails
	order    []string
}

func NewMemory(products []contractx.ProductDetails) *Memory {
	m := &Memory{
		products: make(map[string]contractx.ProductDetails, len(products)),
		order:    make([]string, 0, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, seen := m.products[p.ID]; !seen {
			m.order = append(m.order, p.ID)
		}
		m.products[p.ID] = p
	}
	return m
}

func (m *Memory) Search(ctx context.Context, query string, filters contractx.SearchFilters, page, pageSize int) ([]contractx.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	query = strings.ToLower(strings.TrimSpace(query))

	matched := make([]contractx.Product, 0, len(m.order))
	for _, id := range m.order {
		p := m.products[id]
		if !matchesQuery(p, query) {
			continue
		}
		if !matchesFilters(p.Product, filters) {
			continue
		}
		matched = append(matched, p.Product)
	}

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *Memory) Get(ctx context.Context, productID string) (contractx.ProductDetails, error) {
	p, ok := m.products[strings.TrimSpace(productID)]
	if !ok {
		return contractx.ProductDetails{}, fmt.Errorf("%w: product %q", contractx.ErrNotFound, productID)
	}
	return p, nil
}

// Related returns products sharing the subject's category, preferring any
// explicitly listed related ids, best rated first.
func (m *Memory) Related(ctx context.Context, productID string, limit int) ([]contractx.Product, error) {
	subject, err := m.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 3
	}

	results := make([]contractx.Product, 0, limit)
	seen := map[string]bool{subject.ID: true}

	for _, id := range subject.RelatedIDs {
		if len(results) >= limit {
			return results, nil
		}
		if seen[id] {
			continue
		}
		if p, ok := m.products[id]; ok {
			results = append(results, p.Product)
			seen[id] = true
		}
	}

	sameCategory := make([]contractx.Product, 0, len(m.order))
	for _, id := range m.order {
		if seen[id] {
			continue
		}
		p := m.products[id]
		if p.Category == subject.Category {
			sameCategory = append(sameCategory, p.Product)
		}
	}
	sort.SliceStable(sameCategory, func(i, j int) bool {
		return sameCategory[i].Rating > sameCategory[j].Rating
	})

	for _, p := range sameCategory {
		if len(results) >= limit {
			break
		}
		results = append(results, p)
	}
	return results, nil
}

func matchesQuery(p contractx.ProductDetails, query string) bool {
	if query == "" {
		return true
	}
	for _, field := range []string{p.Name, p.Description, p.Category, p.Brand, p.LongDescription} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func matchesFilters(p contractx.Product, f contractx.SearchFilters) bool {
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
		return false
	}
	return true
}
