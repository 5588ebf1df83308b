package cart

import (
	"context"
	"sync"

	"storefront/internal/domain"
)

type Memory struct {
	mu    sync.Mutex
	carts map[string]domain.CartData
}

func NewMemory() *Memory {
	return &Memory{carts: make(map[string]domain.CartData)}
}

func (m *Memory) Get(_ context.Context, customerID string) (domain.CartData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLocked(customerID), nil
}

func (m *Memory) AddItem(_ context.Context, customerID, productID, size string, quantity int) (domain.CartData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if quantity > 0 {
		m.cartLocked(customerID).Add(productID, size, quantity)
	}
	return m.copyLocked(customerID), nil
}

func (m *Memory) SetQuantity(_ context.Context, customerID, productID, size string, quantity int) (domain.CartData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cartLocked(customerID).Set(productID, size, quantity)
	return m.copyLocked(customerID), nil
}

func (m *Memory) Merge(_ context.Context, customerID string, incoming domain.CartData) (domain.CartData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cartLocked(customerID).Merge(incoming)
	return m.copyLocked(customerID), nil
}

func (m *Memory) Clear(_ context.Context, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, customerID)
	return nil
}

func (m *Memory) cartLocked(customerID string) domain.CartData {
	c, ok := m.carts[customerID]
	if !ok {
		c = domain.CartData{}
		m.carts[customerID] = c
	}
	return c
}

func (m *Memory) copyLocked(customerID string) domain.CartData {
	out := domain.CartData{}
	out.Merge(m.carts[customerID])
	return out
}

var _ Repository = (*Memory)(nil)
