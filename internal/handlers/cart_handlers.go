package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// --- Cart Handlers (Anonymous Or Signed In) ---
//

const (
	CartSessionHeader = "X-Cart-Session"
	CartSessionCookie = "cart_session"
	cartCookieMaxAge  = 60 * 60 * 24 * 30
)

// cartSession returns the visitor's cart session, issuing a new one when
// the request carries none (or one that is not a uuid).
func (h *Handlers) cartSession(c *gin.Context) string {
	session := c.GetHeader(CartSessionHeader)
	if session == "" {
		session, _ = c.Cookie(CartSessionCookie)
	}
	if _, err := uuid.Parse(session); err == nil {
		return session
	}

	session = uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CartSessionCookie, session, cartCookieMaxAge, "/", "", h.SecureCookies, true)
	c.Header(CartSessionHeader, session)
	return session
}

// openCart loads the visitor's cart. It answers the request itself when
// the cart cannot be loaded.
func (h *Handlers) openCart(c *gin.Context) (*cart.Store, bool) {
	store, err := h.Carts.Open(c.Request.Context(), h.cartSession(c))
	if err != nil {
		h.fail(c, err, "Failed to load cart")
		return nil, false
	}
	return store, true
}

func cartResponse(store *cart.Store) gin.H {
	return gin.H{
		"items":      store.Items(),
		"totalItems": store.TotalItems(),
		"totalPrice": store.TotalPrice(),
	}
}

// GetCart is the handler for GET /v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	store, ok := h.openCart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(store))
}

// AddToCartInput defines the JSON for adding an item to the cart.
type AddToCartInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

// AddToCart is the handler for POST /v1/cart/items
// Name, price and image are copied from the product, never taken from
// the client.
func (h *Handlers) AddToCart(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if input.Quantity < 1 {
		input.Quantity = 1
	}

	// 2. --- Look Up The Product ---
	product, err := h.Gateway.Product(c.Request.Context(), input.ProductID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found or not active"})
			return
		}
		h.fail(c, err, "Failed to load product")
		return
	}
	if !product.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found or not active"})
		return
	}
	if !product.HasSize(input.Size) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size for this product", "sizes": product.Sizes})
		return
	}

	store, ok := h.openCart(c)
	if !ok {
		return
	}

	// 3. --- Stock Hint ---
	// Stock is not reserved; this only stops obviously impossible carts.
	inCart := 0
	for _, it := range store.Items() {
		if it.ProductID == product.ID {
			inCart += it.Quantity
		}
	}
	if inCart+input.Quantity > product.Stock {
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock", "stock": product.Stock})
		return
	}

	// 4. --- Add The Line ---
	err = store.AddItem(c.Request.Context(), models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  input.Quantity,
		Size:      input.Size,
		Image:     product.ImageURL,
	})
	if err != nil {
		h.fail(c, err, "Failed to update cart")
		return
	}

	c.JSON(http.StatusCreated, cartResponse(store))
}

type UpdateCartItemInput struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem is the handler for PUT /v1/cart/items/:product_id
// Every size of the product is set to the new quantity.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if input.Quantity < 1 {
		input.Quantity = 1
	}

	store, ok := h.openCart(c)
	if !ok {
		return
	}
	productID := c.Param("product_id")
	if !inCart(store, productID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}
	if err := store.UpdateQuantity(c.Request.Context(), productID, input.Quantity); err != nil {
		h.fail(c, err, "Failed to update cart")
		return
	}
	c.JSON(http.StatusOK, cartResponse(store))
}

// DeleteCartItem is the handler for DELETE /v1/cart/items/:product_id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	store, ok := h.openCart(c)
	if !ok {
		return
	}
	productID := c.Param("product_id")
	if !inCart(store, productID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}
	if err := store.RemoveItem(c.Request.Context(), productID); err != nil {
		h.fail(c, err, "Failed to remove item")
		return
	}
	c.JSON(http.StatusOK, cartResponse(store))
}

// ClearCart is the handler for DELETE /v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	store, ok := h.openCart(c)
	if !ok {
		return
	}
	if err := store.Clear(c.Request.Context()); err != nil {
		h.fail(c, err, "Failed to clear cart")
		return
	}
	c.JSON(http.StatusOK, cartResponse(store))
}

func inCart(store *cart.Store, productID string) bool {
	for _, it := range store.Items() {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Checkout is the handler for POST /v1/cart/checkout
// Anonymous visitors are sent to the login page.
func (h *Handlers) Checkout(c *gin.Context) {
	// 1. --- Bind Shipping Form ---
	var form checkout.ShippingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	store, ok := h.openCart(c)
	if !ok {
		return
	}

	// 2. --- Run Checkout ---
	res, err := h.CheckoutFlow.Submit(c.Request.Context(), middleware.UserID(c), form, store)

	// 3. --- Respond ---
	var verr *checkout.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, res)
	case errors.Is(err, checkout.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to place an order", "redirect": res.Redirect})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "missing": verr.Missing})
	default:
		status := statusFor(err)
		if status < http.StatusInternalServerError {
			status = http.StatusInternalServerError
		}
		h.logger().Error("checkout failed", "error", err, "state", res.State)
		c.JSON(status, gin.H{"error": "Error creating order. Please try again.", "trail": res.Trail})
	}
}
