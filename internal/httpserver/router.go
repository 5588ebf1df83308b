package httpserver

import (
	"context"
	"io"
	"log"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type orderService interface {
	PlaceOrder(ctx context.Context, in ordersvc.PlaceInput) (*domain.Order, error)
	VerifyPayment(ctx context.Context, in ordersvc.VerifyInput) (*ordersvc.VerifyResult, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	ListAll(ctx context.Context) ([]domain.Order, error)
	ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	SendTestNotification()
}

type cartService interface {
	Get(ctx context.Context, customerID string) (domain.CartData, error)
	Add(ctx context.Context, customerID, productID, size string) (domain.CartData, error)
	Update(ctx context.Context, customerID, productID, size string, quantity int) (domain.CartData, error)
	Clear(ctx context.Context, customerID string) error
	Sync(ctx context.Context, customerID string, guest domain.CartData) (domain.CartData, error)
}

type tokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// Deps carries everything the handlers need.
type Deps struct {
	Orders      orderService
	Carts       cartService
	Tokens      tokenVerifier
	DB          Pinger
	CORSOrigins []string
	ServiceName string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) *gin.Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if deps.ServiceName != "" {
		router.Use(otelgin.Middleware(deps.ServiceName))
	}
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	h := &handlers{orders: deps.Orders, carts: deps.Carts, logger: logger}
	ident := identify(deps.Tokens, logger)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))

	api := router.Group("/api")
	api.GET("/health", apiHealthHandler)

	orders := api.Group("/order", ident)
	orders.POST("/place", h.placeOrder)
	orders.POST("/verify", h.verifyPayment)
	orders.POST("/userorders", requireUser(), h.userOrders)
	orders.GET("/userorders", requireUser(), h.userOrders)
	orders.GET("/list", requireAdmin(), h.listOrders)
	orders.POST("/list", requireAdmin(), h.listOrders)
	orders.POST("/status", requireAdmin(), h.updateStatus)
	orders.POST("/delete", requireAdmin(), h.deleteOrder)
	orders.GET("/test-notify", requireAdmin(), h.testNotify)

	carts := api.Group("/cart", ident, requireUser())
	carts.POST("/add", h.addToCart)
	carts.POST("/update", h.updateCart)
	carts.POST("/get", h.getCart)
	carts.GET("/get", h.getCart)
	carts.POST("/clear", h.clearCart)
	carts.POST("/sync", h.syncCart)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		// Credentials cannot be combined with a wildcard origin.
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
