// Package app assembles stores, services and adapters from Config for the
// storefront binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/notify"
	"storefront/internal/observability"
	"storefront/internal/payment"
	cartrepo "storefront/internal/repository/cart"
	"storefront/internal/repository/inventory"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/repository/product"
	"storefront/internal/seed"
	cartsvc "storefront/internal/service/cart"
	ordersvc "storefront/internal/service/order"

	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceName = "storefront"

type App struct {
	Config config.Config
	Logger *log.Logger

	// Pool is nil with in-memory storage.
	Pool       *pgxpool.Pool
	Products   product.Repository
	Ledger     inventory.Ledger
	Carts      *cartsvc.Service
	Orders     *ordersvc.Service
	Dispatcher *notify.Dispatcher
	Tokens     *auth.Verifier
	Telemetry  *observability.Instruments

	shutdownTelemetry func(context.Context) error
}

// New connects storage and builds every service. Close releases what New opened.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	a := &App{Config: cfg, Logger: logger}

	telemetry, shutdown, err := observability.Init(ctx, serviceName, cfg.TelemetryEnabled, logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	a.Telemetry = telemetry
	a.shutdownTelemetry = shutdown

	var (
		orders orderrepo.Repository
		carts  cartrepo.Repository
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString, logger)
		if err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("connect db: %w", err)
		}
		a.Pool = pool
		a.Products = product.NewPostgres(pool, logger)
		a.Ledger = inventory.NewPostgres(pool, logger)
		orders = orderrepo.NewPostgres(pool, logger)
		carts = cartrepo.NewPostgres(pool, logger)
	case config.StorageMemory:
		products := product.NewMemory()
		ledger := inventory.NewMemory(products)
		if _, err := seed.Apply(ctx, products); err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("seed memory catalog: %w", err)
		}
		a.Products = products
		a.Ledger = ledger
		orders = orderrepo.NewMemory(ledger)
		carts = cartrepo.NewMemory()
		logger.Printf("app: using in-memory storage with %d demo products", len(seed.Products))
	default:
		_ = shutdown(ctx)
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Dispatcher = notify.NewDispatcher(notifier, cfg.NotifyTimeout, logger)

	if cfg.PaystackSecret == "" {
		logger.Printf("app: PAYSTACK_SECRET is empty, payment verification will fail")
	}
	gateway := payment.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecret, nil, logger)

	a.Carts = cartsvc.New(carts, a.Products, a.Ledger, logger)
	a.Orders = ordersvc.New(orders, a.Carts, gateway, a.Dispatcher, ordersvc.Config{
		DeliveryFeeCents: cfg.DeliveryFeeCents,
		Currency:         cfg.PaymentCurrency,
		MinorUnitFactor:  cfg.PaymentMinorUnit,
		ReservationTTL:   cfg.ReservationTTL,
		PendingTTL:       cfg.OrderPendingTTL,
		ShopOwnerPhone:   cfg.ShopOwnerPhone,
	},
		ordersvc.WithLogger(logger),
		ordersvc.WithTracer(telemetry.Tracer("storefront/order")),
		ordersvc.WithMeter(telemetry.Meter("storefront/order")),
	)

	if cfg.JWTSecret == "" {
		logger.Printf("app: JWT_SECRET is empty, authenticated routes will reject every token")
	}
	a.Tokens = auth.NewVerifier(cfg.JWTSecret, cfg.AdminClaim)
	return a, nil
}

func newNotifier(cfg config.Config, logger *log.Logger) (notify.Notifier, error) {
	switch cfg.Notifier {
	case "", "log":
		return notify.Log{Logger: logger}, nil
	case "none":
		return notify.Noop{}, nil
	case "twilio":
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFrom == "" {
			return nil, errors.New("twilio notifier needs TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM")
		}
		return notify.NewTwilio(notify.DefaultTwilioURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, nil)
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}
}

// HTTPDeps returns the handler dependencies for httpserver.New.
func (a *App) HTTPDeps() httpserver.Deps {
	deps := httpserver.Deps{
		Orders:      a.Orders,
		Carts:       a.Carts,
		Tokens:      a.Tokens,
		CORSOrigins: a.Config.CORSOrigins,
		ServiceName: serviceName,
	}
	if a.Pool != nil {
		deps.DB = a.Pool
	}
	return deps
}

// RunExpiry fails stale pending orders and drops lapsed reservations every
// interval until ctx is done.
func (a *App) RunExpiry(ctx context.Context, interval time.Duration) {
	if interval <= 0 || a.Config.OrderPendingTTL <= 0 {
		a.Logger.Printf("app: pending order expiry disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.expireOnce(ctx)
		}
	}
}

func (a *App) expireOnce(ctx context.Context) {
	n, err := a.Orders.ExpirePending(ctx)
	if err != nil {
		a.Logger.Printf("app: expire pending error=%v", err)
	} else if n > 0 {
		a.Logger.Printf("app: expired pending orders count=%d", n)
	}
	purged, err := a.Ledger.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		a.Logger.Printf("app: purge reservations error=%v", err)
	} else if purged > 0 {
		a.Logger.Printf("app: purged expired reservations count=%d", purged)
	}
}

// Close waits for in-flight notifications, flushes telemetry and closes the pool.
func (a *App) Close(ctx context.Context) {
	if a.Dispatcher != nil {
		a.Dispatcher.Wait()
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			a.Logger.Printf("app: telemetry shutdown error=%v", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
