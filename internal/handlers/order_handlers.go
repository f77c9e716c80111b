package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Customer Order Handlers ---
//

// OrderSummary is an order as the history list shows it.
type OrderSummary struct {
	models.Order
	StatusColor string `json:"statusColor"`
}

// GetMyOrders is the handler for GET /v1/orders
// It lists the signed in user's orders, newest first.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	// 1. --- Get User ID ---
	userID := middleware.UserID(c)

	// 2. --- Load Orders ---
	orders, err := h.Gateway.OrdersByUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "Failed to retrieve orders")
		return
	}

	// 3. --- Decorate With Badge Colors ---
	out := make([]OrderSummary, len(orders))
	for i, o := range orders {
		out[i] = OrderSummary{Order: o, StatusColor: o.Status.Color()}
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// GetOrder is the handler for GET /v1/orders/:id
// It backs the order confirmation page. Orders of other users are
// reported as missing.
func (h *Handlers) GetOrder(c *gin.Context) {
	userID := middleware.UserID(c)
	ctx := c.Request.Context()

	order, err := h.Gateway.Order(ctx, c.Param("id"))
	if errors.Is(err, backend.ErrNotFound) || (err == nil && order.UserID != userID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		h.fail(c, err, "Failed to retrieve order")
		return
	}

	items, err := h.Gateway.OrderItems(ctx, order.ID)
	if err != nil {
		h.fail(c, err, "Failed to retrieve order items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":       order,
		"items":       items,
		"statusColor": order.Status.Color(),
	})
}
