package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/gin-gonic/gin"
)

//
// --- Public Product Handlers ---
//

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
)

// ListProducts is the handler for GET /v1/products?limit=&offset=
func (h *Handlers) ListProducts(c *gin.Context) {
	// 1. --- Parse Paging ---
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultProductLimit)))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must not be negative"})
		return
	}

	// 2. --- Query ---
	products, err := h.Gateway.Products(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetProduct is the handler for GET /v1/products/:id
// Inactive products are hidden from the storefront.
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.Gateway.Product(c.Request.Context(), c.Param("id"))
	if errors.Is(err, backend.ErrNotFound) || (err == nil && !product.IsActive) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		h.fail(c, err, "Failed to retrieve product")
		return
	}
	c.JSON(http.StatusOK, product)
}
