package inventory

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository/product"
)

type reservation struct {
	quantity  int
	expiresAt time.Time
}

// Memory is the in-process ledger. Stock lives in the product store; the
// ledger keeps reservations and serializes every stock change behind mu.
type Memory struct {
	mu       sync.Mutex
	products *product.Memory
	held     map[string]map[string]reservation // order id -> product id -> hold
	now      func() time.Time
}

func NewMemory(products *product.Memory) *Memory {
	return &Memory{
		products: products,
		held:     make(map[string]map[string]reservation),
		now:      time.Now,
	}
}

func (m *Memory) Free(ctx context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.products.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	return max(p.Stock-m.heldLocked(productID, ""), 0), nil
}

func (m *Memory) Reserve(_ context.Context, orderID string, lines []domain.StockLine, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]int, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range sortedLines(lines) {
		if _, ok := want[line.ProductID]; !ok {
			ids = append(ids, line.ProductID)
		}
		want[line.ProductID] += line.Quantity
	}
	// Stock is only read here; UpdateStocks gives an all-or-nothing check under the store lock.
	err := m.products.UpdateStocks(ids, func(p domain.Product) (int, error) {
		free := p.Stock - m.heldLocked(p.ID, orderID)
		if free < want[p.ID] {
			return 0, &domain.StockError{ProductID: p.ID, Name: p.Name, Requested: want[p.ID], Available: max(free, 0)}
		}
		return p.Stock, nil
	})
	if err != nil {
		return err
	}
	expiresAt := m.now().Add(ttl)
	holds := make(map[string]reservation, len(want))
	for id, qty := range want {
		holds[id] = reservation{quantity: qty, expiresAt: expiresAt}
	}
	m.held[orderID] = holds
	return nil
}

func (m *Memory) Release(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, orderID)
	return nil
}

func (m *Memory) Decrement(_ context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products.UpdateStocks([]string{productID}, func(p domain.Product) (int, error) {
		return decrement(p, quantity)
	})
}

func (m *Memory) Commit(_ context.Context, orderID string, lines []domain.StockLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]int, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range sortedLines(lines) {
		if _, ok := want[line.ProductID]; !ok {
			ids = append(ids, line.ProductID)
		}
		want[line.ProductID] += line.Quantity
	}
	err := m.products.UpdateStocks(ids, func(p domain.Product) (int, error) {
		return decrement(p, want[p.ID])
	})
	if err != nil {
		return err
	}
	delete(m.held, orderID)
	return nil
}

func (m *Memory) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for orderID, holds := range m.held {
		for productID, r := range holds {
			if !r.expiresAt.After(now) {
				delete(holds, productID)
				purged++
			}
		}
		if len(holds) == 0 {
			delete(m.held, orderID)
		}
	}
	return purged, nil
}

// heldLocked sums live reservations on productID, ignoring those of exceptOrder.
func (m *Memory) heldLocked(productID, exceptOrder string) int {
	now := m.now()
	total := 0
	for orderID, holds := range m.held {
		if orderID == exceptOrder {
			continue
		}
		if r, ok := holds[productID]; ok && r.expiresAt.After(now) {
			total += r.quantity
		}
	}
	return total
}

func decrement(p domain.Product, quantity int) (int, error) {
	if p.Stock < quantity {
		return 0, &domain.StockError{ProductID: p.ID, Name: p.Name, Requested: quantity, Available: p.Stock}
	}
	return p.Stock - quantity, nil
}

var _ Ledger = (*Memory)(nil)
