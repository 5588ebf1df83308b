package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository/inventory"

	"github.com/google/uuid"
)

type stored struct {
	order domain.Order
	seq   int64
}

// Memory is an in-process order store. Stock work is delegated to the ledger
// while the store lock is held, so payment commits serialize per store.
type Memory struct {
	mu     sync.Mutex
	ledger inventory.Ledger
	orders map[string]*stored
	seq    int64
	now    func() time.Time
}

func NewMemory(ledger inventory.Ledger) *Memory {
	return &Memory{
		ledger: ledger,
		orders: make(map[string]*stored),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Create(ctx context.Context, order *domain.Order, reservationTTL time.Duration) (*domain.Order, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	created := cloneOrder(*order)
	created.ID = uuid.NewString()
	created.CreatedAt = m.now()
	created.UpdatedAt = created.CreatedAt
	if err := m.ledger.Reserve(ctx, created.ID, created.StockLines(), reservationTTL); err != nil {
		return nil, err
	}
	m.seq++
	m.orders[created.ID] = &stored{order: created, seq: m.seq}
	out := cloneOrder(created)
	return &out, nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.orders[id]
	if !ok {
		return nil, domain.OrderNotFound(id)
	}
	out := cloneOrder(s.order)
	return &out, nil
}

func (m *Memory) GetByReference(_ context.Context, reference string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *stored
	for _, s := range m.orders {
		if reference != "" && s.order.PaymentInfo.Reference == reference && (found == nil || s.seq > found.seq) {
			found = s
		}
	}
	if found == nil {
		return nil, domain.OrderNotFound(reference)
	}
	out := cloneOrder(found.order)
	return &out, nil
}

func (m *Memory) List(_ context.Context) ([]domain.Order, error) {
	return m.filter(func(domain.Order) bool { return true }), nil
}

func (m *Memory) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	return m.filter(func(o domain.Order) bool { return o.BelongsTo(customerID) }), nil
}

// filter returns matching orders newest first.
func (m *Memory) filter(keep func(domain.Order) bool) []domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]*stored, 0, len(m.orders))
	for _, s := range m.orders {
		if keep(s.order) {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })
	out := make([]domain.Order, 0, len(matched))
	for _, s := range matched {
		out = append(out, cloneOrder(s.order))
	}
	return out
}

func (m *Memory) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.orders[id]
	if !ok {
		return nil, domain.OrderNotFound(id)
	}
	if s.order.OrderStatus != from || s.order.PaymentStatus != domain.PaymentPaid {
		return nil, fmt.Errorf("order %s is %s/%s: %w", id, s.order.PaymentStatus, s.order.OrderStatus, domain.ErrInvalidTransition)
	}
	s.order.OrderStatus = to
	s.order.UpdatedAt = m.now()
	out := cloneOrder(s.order)
	return &out, nil
}

func (m *Memory) CommitPayment(ctx context.Context, id string, info domain.PaymentInfo) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.orders[id]
	if !ok {
		return nil, domain.OrderNotFound(id)
	}
	if s.order.PaymentStatus == domain.PaymentPaid {
		return nil, domain.ErrAlreadyPaid
	}
	if err := m.ledger.Commit(ctx, id, s.order.StockLines()); err != nil {
		return nil, err
	}
	if info.Reference == "" {
		info.Reference = s.order.PaymentInfo.Reference
	}
	s.order.PaymentStatus = domain.PaymentPaid
	s.order.PaymentInfo = info
	s.order.UpdatedAt = m.now()
	out := cloneOrder(s.order)
	return &out, nil
}

func (m *Memory) Delete(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.orders[id]
	if !ok {
		return nil, domain.OrderNotFound(id)
	}
	if err := m.ledger.Release(ctx, id); err != nil {
		return nil, err
	}
	delete(m.orders, id)
	out := cloneOrder(s.order)
	return &out, nil
}

func (m *Memory) ExpirePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.orders {
		if s.order.PaymentStatus != domain.PaymentPending || !s.order.CreatedAt.Before(cutoff) {
			continue
		}
		if err := m.ledger.Release(ctx, id); err != nil {
			return ids, err
		}
		s.order.PaymentStatus = domain.PaymentFailed
		s.order.UpdatedAt = m.now()
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.LineItem(nil), o.Items...)
	if o.CustomerID != nil {
		id := *o.CustomerID
		o.CustomerID = &id
	}
	if o.PaymentInfo.VerifiedAt != nil {
		at := *o.PaymentInfo.VerifiedAt
		o.PaymentInfo.VerifiedAt = &at
	}
	return o
}

var _ Repository = (*Memory)(nil)
