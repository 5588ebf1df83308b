package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type stubProducts struct {
	products map[string]domain.Product
	calls    int
}

func (s *stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.calls++
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ProductNotFound(id)
	}
	return &p, nil
}

type stubLedger struct {
	free  map[string]int
	asked map[string]int
	err   error
}

func (s *stubLedger) Free(_ context.Context, productID string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.asked == nil {
		s.asked = map[string]int{}
	}
	s.asked[productID]++
	return s.free[productID], nil
}

func newService(ledger *stubLedger) (*Service, *stubProducts) {
	products := &stubProducts{products: map[string]domain.Product{
		"shirt": {ID: "shirt", Name: "Shirt", PriceCents: 5000, Images: []string{"a.jpg", "b.jpg"}, Sizes: []string{"M", "L"}, Stock: 5},
		"cap":   {ID: "cap", Name: "Cap", PriceCents: 1500, Stock: 1},
	}}
	return New(cartrepo.NewMemory(), products, ledger, nil), products
}

func TestBuildSnapshotPricesLines(t *testing.T) {
	svc, _ := newService(&stubLedger{free: map[string]int{"shirt": 5, "cap": 1}})

	snap, err := svc.BuildSnapshot(context.Background(), []domain.CartLine{
		{ProductID: "shirt", Size: "M", Quantity: 2},
		{ProductID: "cap", Size: "One", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if snap.SubtotalCents != 11500 {
		t.Fatalf("expected subtotal 11500, got %d", snap.SubtotalCents)
	}
	first := snap.Items[0]
	if first.Name != "Shirt" || first.PriceCents != 5000 || first.Image != "a.jpg" || first.Size != "M" {
		t.Fatalf("unexpected snapshot %+v", first)
	}
}

func TestBuildSnapshotChecksStockAcrossSizes(t *testing.T) {
	ledger := &stubLedger{free: map[string]int{"shirt": 3}}
	svc, _ := newService(ledger)

	_, err := svc.BuildSnapshot(context.Background(), []domain.CartLine{
		{ProductID: "shirt", Size: "M", Quantity: 2},
		{ProductID: "shirt", Size: "L", Quantity: 2},
	})
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected stock error, got %v", err)
	}
	if stockErr.Requested != 4 || ledger.asked["shirt"] != 1 {
		t.Fatalf("expected one aggregated request of 4, got %+v asked=%v", stockErr, ledger.asked)
	}
	// Stock is 5 but other orders hold 2; the error reports what is free.
	if stockErr.Available != 3 {
		t.Fatalf("expected 3 free units, got %d", stockErr.Available)
	}
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestBuildSnapshotValidation(t *testing.T) {
	svc, _ := newService(&stubLedger{free: map[string]int{"shirt": 5}})
	cases := map[string][]domain.CartLine{
		"empty":        nil,
		"zero qty":     {{ProductID: "shirt", Size: "M", Quantity: 0}},
		"missing size": {{ProductID: "shirt", Quantity: 1}},
		"bad size":     {{ProductID: "shirt", Size: "XS", Quantity: 1}},
		"missing id":   {{Size: "M", Quantity: 1}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.BuildSnapshot(context.Background(), lines)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestBuildSnapshotUnknownProduct(t *testing.T) {
	svc, _ := newService(&stubLedger{})
	_, err := svc.BuildSnapshot(context.Background(), []domain.CartLine{{ProductID: "ghost", Size: "M", Quantity: 1}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBuildSnapshotLooksUpEachProductOnce(t *testing.T) {
	svc, products := newService(&stubLedger{free: map[string]int{"shirt": 5}})
	_, err := svc.BuildSnapshot(context.Background(), []domain.CartLine{
		{ProductID: "shirt", Size: "M", Quantity: 1},
		{ProductID: "shirt", Size: "L", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if products.calls != 1 {
		t.Fatalf("expected 1 catalog lookup, got %d", products.calls)
	}
}

func TestCartAddUpdateSync(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(&stubLedger{})

	if _, err := svc.Add(ctx, "u1", "shirt", "M"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	cart, err := svc.Add(ctx, "u1", "shirt", "M")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if cart["shirt"]["M"] != 2 {
		t.Fatalf("expected quantity 2, got %v", cart)
	}

	if _, err := svc.Add(ctx, "u1", "shirt", "XS"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid size, got %v", err)
	}
	if _, err := svc.Update(ctx, "u1", "shirt", "M", -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected negative quantity rejected, got %v", err)
	}

	cart, err = svc.Sync(ctx, "u1", domain.CartData{"shirt": {"M": 1, "L": 1}, "ghost": {"M": 3}})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cart["shirt"]["M"] != 3 || cart["shirt"]["L"] != 1 {
		t.Fatalf("unexpected merged cart %v", cart)
	}
	if _, ok := cart["ghost"]; ok {
		t.Fatalf("unknown product should be dropped: %v", cart)
	}

	cart, err = svc.Update(ctx, "u1", "shirt", "M", 0)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, ok := cart["shirt"]["M"]; ok {
		t.Fatalf("size should be removed: %v", cart)
	}

	lines, err := svc.Lines(ctx, "u1")
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 1 || lines[0].Size != "L" {
		t.Fatalf("unexpected lines %+v", lines)
	}

	if err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
}
