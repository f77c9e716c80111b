package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Admin Handlers (Admin-Only) ---
//

// GetAllOrders is the handler for GET /v1/admin/orders
func (h *Handlers) GetAllOrders(c *gin.Context) {
	orders, err := h.Admin.Orders(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to retrieve orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type UpdateOrderStatusInput struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus is the handler for PATCH /v1/admin/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// 2. --- Update ---
	order, err := h.Admin.SetOrderStatus(c.Request.Context(), c.Param("id"), input.Status)
	if err != nil {
		h.fail(c, err, "Failed to update order status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Order status updated",
		"order":       order,
		"statusColor": order.Status.Color(),
	})
}

// GetAllProducts is the handler for GET /v1/admin/products
// Unlike the storefront listing it includes inactive products.
func (h *Handlers) GetAllProducts(c *gin.Context) {
	products, err := h.Admin.Products(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to retrieve products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// CreateProduct is the handler for POST /v1/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	product, err := h.Admin.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct is the handler for PUT /v1/admin/products/:id
// Only the fields present in the body change.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	var input models.ProductUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	product, err := h.Admin.UpdateProduct(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.fail(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct is the handler for DELETE /v1/admin/products/:id
func (h *Handlers) DeleteProduct(c *gin.Context) {
	if err := h.Admin.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
