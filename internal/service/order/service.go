// Package order runs the order lifecycle: placement from a priced cart
// snapshot, payment verification with a single stock commit, and
// administrator fulfilment updates.
package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/notify"
	"storefront/internal/payment"
	cartsvc "storefront/internal/service/cart"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "storefront/internal/service/order"

type orderStore interface {
	Create(ctx context.Context, order *domain.Order, reservationTTL time.Duration) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
	CommitPayment(ctx context.Context, id string, info domain.PaymentInfo) (*domain.Order, error)
	Delete(ctx context.Context, id string) (*domain.Order, error)
	ExpirePending(ctx context.Context, cutoff time.Time) ([]string, error)
}

type carts interface {
	BuildSnapshot(ctx context.Context, lines []domain.CartLine) (*cartsvc.Snapshot, error)
	Lines(ctx context.Context, customerID string) ([]domain.CartLine, error)
	Clear(ctx context.Context, customerID string) error
}

type gateway interface {
	Verify(ctx context.Context, reference string) (payment.Verdict, error)
}

type dispatcher interface {
	Dispatch(destination, message string)
}

// Config holds the pricing and timing policy of the engine.
type Config struct {
	DeliveryFeeCents int64
	Currency         string
	// MinorUnitFactor converts a total in currency units to the gateway's minor units.
	MinorUnitFactor int64
	PaymentMethod   string
	ReservationTTL  time.Duration
	PendingTTL      time.Duration
	ShopOwnerPhone  string
}

type Service struct {
	orders   orderStore
	carts    carts
	gateway  gateway
	notifier dispatcher
	cfg      Config
	logger   *log.Logger
	tracer   trace.Tracer
	metrics  serviceMetrics
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(orders orderStore, carts carts, gw gateway, notifier dispatcher, cfg Config, opts ...Option) *Service {
	if cfg.MinorUnitFactor <= 0 {
		cfg.MinorUnitFactor = 100
	}
	if cfg.PaymentMethod == "" {
		cfg.PaymentMethod = "Paystack"
	}
	s := &Service{
		orders:   orders,
		carts:    carts,
		gateway:  gw,
		notifier: notifier,
		cfg:      cfg,
		metrics:  newServiceMetrics(nil),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if s.tracer == nil {
		s.tracer = tracenoop.NewTracerProvider().Tracer(tracerName)
	}
	if s.notifier == nil {
		s.notifier = notify.NewDispatcher(nil, 0, s.logger)
	}
	return s
}

// PlaceInput is a checkout request. CustomerID is nil for guests.
type PlaceInput struct {
	CustomerID *string
	Items      []domain.CartLine
	Address    domain.ShippingAddress
	Reference  string
}

// PlaceOrder prices the items, stores a Pending order and holds its stock.
// An authenticated caller with no items checks out their saved cart.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(attribute.Int("order.lines", len(in.Items))))
	defer span.End()

	address := in.Address.Normalize()
	if err := address.Validate(); err != nil {
		return nil, s.fail(span, err)
	}

	lines := in.Items
	if len(lines) == 0 && in.CustomerID != nil {
		saved, err := s.carts.Lines(ctx, *in.CustomerID)
		if err != nil {
			return nil, s.fail(span, err)
		}
		lines = saved
	}

	snap, err := s.carts.BuildSnapshot(ctx, lines)
	if err != nil {
		s.logger.Printf("order svc: place snapshot error=%v", err)
		return nil, s.fail(span, err)
	}

	var customerID *string
	if in.CustomerID != nil && *in.CustomerID != "" {
		id := *in.CustomerID
		customerID = &id
	}
	order := &domain.Order{
		CustomerID:       customerID,
		Items:            snap.Items,
		ShippingAddress:  address,
		SubtotalCents:    snap.SubtotalCents,
		DeliveryFeeCents: s.cfg.DeliveryFeeCents,
		TotalCents:       snap.SubtotalCents + s.cfg.DeliveryFeeCents,
		PaymentMethod:    s.cfg.PaymentMethod,
		PaymentStatus:    domain.PaymentPending,
		OrderStatus:      domain.StatusPlaced,
		PaymentInfo:      domain.PaymentInfo{Reference: strings.TrimSpace(in.Reference)},
	}
	created, err := s.orders.Create(ctx, order, s.cfg.ReservationTTL)
	if err != nil {
		s.logger.Printf("order svc: place create error=%v", err)
		return nil, s.fail(span, err)
	}

	span.SetAttributes(attribute.String("order.id", created.ID), attribute.Int64("order.total_cents", created.TotalCents))
	s.metrics.recordPlaced(ctx)
	s.logger.Printf("order svc: placed order_id=%s total_cents=%d guest=%t", created.ID, created.TotalCents, created.CustomerID == nil)
	s.notifier.Dispatch(s.cfg.ShopOwnerPhone, notify.OrderPlaced(*created, s.cfg.Currency))
	return created, nil
}

// VerifyInput identifies the payment to check. OrderID is optional; without it
// the order is found by its stored reference.
type VerifyInput struct {
	Reference string
	OrderID   string
}

type VerifyResult struct {
	Order       *domain.Order
	AlreadyPaid bool
}

// VerifyPayment confirms the payment with the gateway and, on success,
// commits stock and marks the order Paid in one step. A repeated call for a
// paid order returns it unchanged with AlreadyPaid set. On any failure the
// order keeps its payment status so the client can retry.
func (s *Service) VerifyPayment(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	reference := strings.TrimSpace(in.Reference)
	orderID := strings.TrimSpace(in.OrderID)
	ctx, span := s.tracer.Start(ctx, "OrderService.VerifyPayment",
		trace.WithAttributes(attribute.String("payment.reference", reference), attribute.String("order.id", orderID)))
	defer span.End()

	if reference == "" {
		return nil, s.fail(span, domain.Invalid("reference required"))
	}

	var (
		current *domain.Order
		err     error
	)
	if orderID != "" {
		current, err = s.orders.GetByID(ctx, orderID)
	} else {
		current, err = s.orders.GetByReference(ctx, reference)
	}
	if err != nil {
		return nil, s.fail(span, err)
	}
	if current.PaymentStatus == domain.PaymentPaid {
		s.logger.Printf("order svc: verify order_id=%s already paid", current.ID)
		return &VerifyResult{Order: current, AlreadyPaid: true}, nil
	}
	if stored := current.PaymentInfo.Reference; stored != "" && stored != reference {
		return nil, s.fail(span, domain.Invalid("reference does not belong to order %s", current.ID))
	}
	if orderID != "" {
		if other, err := s.orders.GetByReference(ctx, reference); err == nil && other.ID != current.ID {
			return nil, s.fail(span, domain.Invalid("reference already used by another order"))
		}
	}

	verdict, err := s.gateway.Verify(ctx, reference)
	if err != nil || !verdict.Success {
		switch {
		case err == nil:
			err = fmt.Errorf("gateway status %q: %w", verdict.Status, domain.ErrGatewayUnsuccessful)
		case !errors.Is(err, domain.ErrGatewayUnsuccessful):
			err = fmt.Errorf("%v: %w", err, domain.ErrGatewayUnsuccessful)
		}
		s.metrics.recordVerifyFailed(ctx, "gateway")
		s.logger.Printf("order svc: verify order_id=%s reference=%s gateway error=%v", current.ID, reference, err)
		return nil, s.fail(span, err)
	}

	expected, err := domain.GatewayAmount(current.TotalCents, s.cfg.MinorUnitFactor)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if verdict.AmountMinorUnits != expected {
		s.metrics.recordVerifyFailed(ctx, "amount")
		s.logger.Printf("order svc: verify order_id=%s amount mismatch expected=%d got=%d", current.ID, expected, verdict.AmountMinorUnits)
		return nil, s.fail(span, fmt.Errorf("expected %d got %d: %w", expected, verdict.AmountMinorUnits, domain.ErrAmountMismatch))
	}
	if s.cfg.Currency != "" && verdict.Currency != "" && !strings.EqualFold(s.cfg.Currency, verdict.Currency) {
		s.metrics.recordVerifyFailed(ctx, "currency")
		return nil, s.fail(span, fmt.Errorf("expected %s got %s: %w", s.cfg.Currency, verdict.Currency, domain.ErrCurrencyMismatch))
	}

	verifiedAt := s.now()
	paid, err := s.orders.CommitPayment(ctx, current.ID, domain.PaymentInfo{
		Reference:            reference,
		VerifiedAt:           &verifiedAt,
		GatewayTransactionID: verdict.TransactionID,
	})
	if errors.Is(err, domain.ErrAlreadyPaid) {
		latest, getErr := s.orders.GetByID(ctx, current.ID)
		if getErr != nil {
			return nil, s.fail(span, getErr)
		}
		return &VerifyResult{Order: latest, AlreadyPaid: true}, nil
	}
	if err != nil {
		s.metrics.recordVerifyFailed(ctx, "commit")
		s.logger.Printf("order svc: verify order_id=%s commit error=%v", current.ID, err)
		return nil, s.fail(span, err)
	}

	if paid.CustomerID != nil {
		if err := s.carts.Clear(ctx, *paid.CustomerID); err != nil {
			s.logger.Printf("order svc: clear cart customer_id=%s error=%v", *paid.CustomerID, err)
		}
	}
	s.metrics.recordVerified(ctx)
	s.logger.Printf("order svc: verified order_id=%s reference=%s transaction_id=%s", paid.ID, reference, verdict.TransactionID)
	s.notifier.Dispatch(s.cfg.ShopOwnerPhone, notify.OrderReceived(*paid, s.cfg.Currency))
	return &VerifyResult{Order: paid}, nil
}

// UpdateStatus advances a paid order's fulfilment status. Moves are
// forward-only; skipping stages is allowed.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus",
		trace.WithAttributes(attribute.String("order.id", orderID), attribute.String("order.status", status)))
	defer span.End()

	next, err := domain.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, s.fail(span, err)
	}
	current, err := s.orders.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, s.fail(span, err)
	}
	from := current.OrderStatus
	if err := current.AdvanceStatus(next); err != nil {
		return nil, s.fail(span, err)
	}
	updated, err := s.orders.UpdateStatus(ctx, current.ID, from, next)
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.logger.Printf("order svc: status order_id=%s from=%q to=%q", updated.ID, from, next)
	if next == domain.StatusDelivered {
		s.notifier.Dispatch(updated.ShippingAddress.Phone, notify.OrderDelivered(*updated))
	}
	return updated, nil
}

// DeleteOrder permanently removes an order. The removed order is logged in full.
func (s *Service) DeleteOrder(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeleteOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	deleted, err := s.orders.Delete(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return s.fail(span, err)
	}
	customer := "guest"
	if deleted.CustomerID != nil {
		customer = *deleted.CustomerID
	}
	s.logger.Printf("order svc: deleted order_id=%s customer=%s total_cents=%d payment_status=%s order_status=%q reference=%s items=%d",
		deleted.ID, customer, deleted.TotalCents, deleted.PaymentStatus, deleted.OrderStatus, deleted.PaymentInfo.Reference, len(deleted.Items))
	s.metrics.recordDeleted(ctx)
	return nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, strings.TrimSpace(orderID))
}

// ListAll returns every order, newest first.
func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListAll")
	defer span.End()
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return orders, nil
}

// ListForCustomer returns the caller's own orders. Guests have none.
func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListForCustomer")
	defer span.End()
	if strings.TrimSpace(customerID) == "" {
		return nil, s.fail(span, domain.ErrUnauthorized)
	}
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return orders, nil
}

// ExpirePending fails Pending orders older than the configured TTL and
// releases their stock holds. A zero TTL disables expiry.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	if s.cfg.PendingTTL <= 0 {
		return 0, nil
	}
	ctx, span := s.tracer.Start(ctx, "OrderService.ExpirePending")
	defer span.End()

	cutoff := s.now().Add(-s.cfg.PendingTTL)
	ids, err := s.orders.ExpirePending(ctx, cutoff)
	if err != nil {
		s.logger.Printf("order svc: expire error=%v", err)
		return len(ids), s.fail(span, err)
	}
	for _, id := range ids {
		s.logger.Printf("order svc: expired order_id=%s", id)
	}
	s.metrics.recordExpired(ctx, len(ids))
	return len(ids), nil
}

// SendTestNotification sends a sample message to the shop owner.
func (s *Service) SendTestNotification() {
	s.notifier.Dispatch(s.cfg.ShopOwnerPhone, fmt.Sprintf("Test notification from storefront at %s", s.now().Format(time.RFC1123)))
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type serviceMetrics struct {
	placed       metric.Int64Counter
	verified     metric.Int64Counter
	verifyFailed metric.Int64Counter
	deleted      metric.Int64Counter
	expired      metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("orders.placed", metric.WithDescription("Orders created as Pending"))
	verified, _ := m.Int64Counter("orders.verified", metric.WithDescription("Orders marked Paid"))
	verifyFailed, _ := m.Int64Counter("orders.verify_failed", metric.WithDescription("Rejected payment verifications"))
	deleted, _ := m.Int64Counter("orders.deleted", metric.WithDescription("Orders deleted by administrators"))
	expired, _ := m.Int64Counter("orders.expired", metric.WithDescription("Pending orders marked Failed after timeout"))
	return serviceMetrics{placed: placed, verified: verified, verifyFailed: verifyFailed, deleted: deleted, expired: expired}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	if m.placed != nil {
		m.placed.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordVerified(ctx context.Context) {
	if m.verified != nil {
		m.verified.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordVerifyFailed(ctx context.Context, reason string) {
	if m.verifyFailed != nil {
		m.verifyFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	if m.deleted != nil {
		m.deleted.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordExpired(ctx context.Context, n int) {
	if m.expired != nil && n > 0 {
		m.expired.Add(ctx, int64(n))
	}
}
