package product

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// Memory keeps the catalog in process. It also owns stock for the in-memory
// inventory ledger, which mutates it through UpdateStock.
type Memory struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	byKey    map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[string]domain.Product),
		byKey:    make(map[string]string),
	}
}

func (m *Memory) List(_ context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ProductNotFound(id)
	}
	out := clone(p)
	return &out, nil
}

func (m *Memory) Upsert(_ context.Context, product domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existingID, ok := m.byKey[product.Key]; ok {
		product.ID = existingID
		product.CreatedAt = m.products[existingID].CreatedAt
	} else {
		if product.ID == "" {
			product.ID = uuid.NewString()
		}
		product.CreatedAt = time.Now().UTC()
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if product.Sizes == nil {
		product.Sizes = []string{}
	}
	m.products[product.ID] = clone(product)
	m.byKey[product.Key] = product.ID
	out := clone(product)
	return &out, nil
}

// UpdateStock applies fn to the current stock of id under the store lock.
// fn returns the new stock or an error that aborts the update.
func (m *Memory) UpdateStock(id string, fn func(current int) (int, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.ProductNotFound(id)
	}
	stock, err := fn(p.Stock)
	if err != nil {
		return err
	}
	p.Stock = stock
	m.products[id] = p
	return nil
}

// UpdateStocks applies fn to several products atomically: if any call fails,
// none of the new values are stored.
func (m *Memory) UpdateStocks(ids []string, fn func(p domain.Product) (int, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := make(map[string]int, len(ids))
	for _, id := range ids {
		p, ok := m.products[id]
		if !ok {
			return domain.ProductNotFound(id)
		}
		stock, err := fn(p)
		if err != nil {
			return err
		}
		next[id] = stock
	}
	for id, stock := range next {
		p := m.products[id]
		p.Stock = stock
		m.products[id] = p
	}
	return nil
}

func clone(p domain.Product) domain.Product {
	if p.Images != nil {
		p.Images = append([]string{}, p.Images...)
	}
	if p.Sizes != nil {
		p.Sizes = append([]string{}, p.Sizes...)
	}
	return p
}

var _ Repository = (*Memory)(nil)
