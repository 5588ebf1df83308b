package httpserver

import (
	"log"
	"net/http"
	"strings"

	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	orders orderService
	carts  cartService
	logger *log.Logger
}

type placeItemRequest struct {
	ProductID string `json:"productId"`
	LegacyID  string `json:"_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	Items       []placeItemRequest     `json:"items"`
	Address     domain.ShippingAddress `json:"address"`
	Reference   string                 `json:"reference"`
	PaymentInfo struct {
		Reference string `json:"reference"`
	} `json:"paymentInfo"`
}

func (r placeOrderRequest) lines() []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(r.Items))
	for _, item := range r.Items {
		id := item.ProductID
		if id == "" {
			id = item.LegacyID
		}
		lines = append(lines, domain.CartLine{ProductID: strings.TrimSpace(id), Size: item.Size, Quantity: item.Quantity})
	}
	return lines
}

func (r placeOrderRequest) reference() string {
	if r.Reference != "" {
		return r.Reference
	}
	return r.PaymentInfo.Reference
}

func (h *handlers) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	order, err := h.orders.PlaceOrder(c.Request.Context(), ordersvc.PlaceInput{
		CustomerID: customerIDFrom(c),
		Items:      req.lines(),
		Address:    req.Address,
		Reference:  req.reference(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order placed",
		"orderId": order.ID,
		"order":   newOrderView(order),
	})
}

type verifyRequest struct {
	Reference string `json:"reference"`
	OrderID   string `json:"orderId"`
}

func (h *handlers) verifyPayment(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	result, err := h.orders.VerifyPayment(c.Request.Context(), ordersvc.VerifyInput{
		Reference: req.Reference,
		OrderID:   req.OrderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	message := "Payment verified"
	if result.AlreadyPaid {
		message = "Order already paid"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     message,
		"alreadyPaid": result.AlreadyPaid,
		"order":       newOrderView(result.Order),
	})
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": newOrderViews(orders)})
}

func (h *handlers) userOrders(c *gin.Context) {
	customerID := customerIDFrom(c)
	if customerID == nil {
		respondError(c, domain.ErrUnauthorized)
		return
	}
	orders, err := h.orders.ListForCustomer(c.Request.Context(), *customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": newOrderViews(orders)})
}

type statusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

func (h *handlers) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OrderID) == "" {
		badRequest(c, "orderId is required")
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), req.OrderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated", "order": newOrderView(order)})
}

type deleteRequest struct {
	OrderID string `json:"orderId"`
}

func (h *handlers) deleteOrder(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OrderID) == "" {
		badRequest(c, "orderId is required")
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), req.OrderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order deleted"})
}

func (h *handlers) testNotify(c *gin.Context) {
	h.orders.SendTestNotification()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Test notification dispatched"})
}
