package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
)

// Service builds priced snapshots from cart lines and manages server-held carts.
type Service struct {
	carts    cartRepo
	products productRepo
	ledger   stockChecker
	logger   *log.Logger
}

type cartRepo interface {
	Get(ctx context.Context, customerID string) (domain.CartData, error)
	AddItem(ctx context.Context, customerID, productID, size string, quantity int) (domain.CartData, error)
	SetQuantity(ctx context.Context, customerID, productID, size string, quantity int) (domain.CartData, error)
	Merge(ctx context.Context, customerID string, incoming domain.CartData) (domain.CartData, error)
	Clear(ctx context.Context, customerID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type stockChecker interface {
	Free(ctx context.Context, productID string) (int, error)
}

func New(carts cartRepo, products productRepo, ledger stockChecker, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{carts: carts, products: products, ledger: ledger, logger: logger}
}

// Snapshot is a priced copy of the requested lines. Names, prices and images
// are copied so later catalog edits never change an order.
type Snapshot struct {
	Items         []domain.LineItem
	SubtotalCents int64
}

// BuildSnapshot prices lines against the catalog. Any unknown product,
// unavailable size or stock shortfall fails the whole snapshot. Quantities of
// one product across sizes are checked together since they share stock.
func (s *Service) BuildSnapshot(ctx context.Context, lines []domain.CartLine) (*Snapshot, error) {
	if len(lines) == 0 {
		return nil, domain.Invalid("cart is empty")
	}

	products := make(map[string]*domain.Product, len(lines))
	snap := &Snapshot{Items: make([]domain.LineItem, 0, len(lines))}
	for _, line := range lines {
		productID := strings.TrimSpace(line.ProductID)
		size := strings.TrimSpace(line.Size)
		switch {
		case productID == "":
			return nil, domain.Invalid("productId required")
		case size == "":
			return nil, domain.Invalid("size required for product %s", productID)
		case line.Quantity < 1:
			return nil, domain.Invalid("quantity must be at least 1 for product %s", productID)
		}

		p, ok := products[productID]
		if !ok {
			var err error
			p, err = s.products.GetByID(ctx, productID)
			if err != nil {
				return nil, err
			}
			products[productID] = p
		}
		if !p.HasSize(size) {
			return nil, domain.Invalid("size %s not available for %s", size, p.Name)
		}

		item := domain.LineItem{
			ProductID:  p.ID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Quantity:   line.Quantity,
			Size:       size,
			Image:      p.PrimaryImage(),
		}
		snap.Items = append(snap.Items, item)
		snap.SubtotalCents += item.TotalCents()
	}

	for _, need := range domain.StockLinesFor(snap.Items) {
		free, err := s.ledger.Free(ctx, need.ProductID)
		if err != nil {
			return nil, err
		}
		if free < need.Quantity {
			p := products[need.ProductID]
			s.logger.Printf("cart svc: insufficient stock product_id=%s requested=%d free=%d stock=%d", p.ID, need.Quantity, free, p.Stock)
			return nil, &domain.StockError{ProductID: p.ID, Name: p.Name, Requested: need.Quantity, Available: free}
		}
	}
	return snap, nil
}

func (s *Service) Get(ctx context.Context, customerID string) (domain.CartData, error) {
	return s.carts.Get(ctx, customerID)
}

// Lines returns the customer's cart as snapshot input.
func (s *Service) Lines(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return cart.Lines(), nil
}

// Add puts one more unit of a product size in the cart.
func (s *Service) Add(ctx context.Context, customerID, productID, size string) (domain.CartData, error) {
	productID, size, err := s.checkItem(ctx, productID, size)
	if err != nil {
		return nil, err
	}
	return s.carts.AddItem(ctx, customerID, productID, size, 1)
}

// Update sets the quantity of a product size; zero removes it.
func (s *Service) Update(ctx context.Context, customerID, productID, size string, quantity int) (domain.CartData, error) {
	if quantity < 0 {
		return nil, domain.Invalid("quantity must not be negative")
	}
	if quantity == 0 {
		productID, size = strings.TrimSpace(productID), strings.TrimSpace(size)
		if productID == "" || size == "" {
			return nil, domain.Invalid("itemId and size required")
		}
		return s.carts.SetQuantity(ctx, customerID, productID, size, 0)
	}
	productID, size, err := s.checkItem(ctx, productID, size)
	if err != nil {
		return nil, err
	}
	return s.carts.SetQuantity(ctx, customerID, productID, size, quantity)
}

func (s *Service) Clear(ctx context.Context, customerID string) error {
	return s.carts.Clear(ctx, customerID)
}

// Sync folds a guest cart into the customer's cart by summing quantities.
// Lines for products that no longer exist are dropped.
func (s *Service) Sync(ctx context.Context, customerID string, guest domain.CartData) (domain.CartData, error) {
	known := domain.CartData{}
	for _, line := range guest.Lines() {
		if _, err := s.products.GetByID(ctx, line.ProductID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Printf("cart svc: sync drop customer_id=%s product_id=%s", customerID, line.ProductID)
				continue
			}
			return nil, err
		}
		known.Add(line.ProductID, line.Size, line.Quantity)
	}
	return s.carts.Merge(ctx, customerID, known)
}

func (s *Service) checkItem(ctx context.Context, productID, size string) (string, string, error) {
	productID, size = strings.TrimSpace(productID), strings.TrimSpace(size)
	if productID == "" || size == "" {
		return "", "", domain.Invalid("itemId and size required")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return "", "", err
	}
	if !p.HasSize(size) {
		return "", "", domain.Invalid("size %s not available for %s", size, p.Name)
	}
	return p.ID, size, nil
}
