package httpserver

import (
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ItemID   string `json:"itemId"`
	Size     string `json:"size"`
	Quantity *int   `json:"quantity"`
}

// requestCustomer is only called behind requireUser.
func requestCustomer(c *gin.Context) string {
	return *customerIDFrom(c)
}

func (h *handlers) addToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cart, err := h.carts.Add(c.Request.Context(), requestCustomer(c), req.ItemID, req.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Added to cart", "cartData": cart})
}

func (h *handlers) updateCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	cart, err := h.carts.Update(c.Request.Context(), requestCustomer(c), req.ItemID, req.Size, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart updated", "cartData": cart})
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), requestCustomer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cartData": cart})
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), requestCustomer(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart cleared", "cartData": domain.CartData{}})
}

type syncCartRequest struct {
	GuestCart domain.CartData `json:"guestCart"`
}

func (h *handlers) syncCart(c *gin.Context) {
	var req syncCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cart, err := h.carts.Sync(c.Request.Context(), requestCustomer(c), req.GuestCart)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart synced", "cartData": cart})
}
