package routes

import (
	"net/http"

	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Options configures the router around the handlers.
type Options struct {
	// CORSOrigin is the single browser origin allowed to call the API.
	CORSOrigin string
	// APIKey, when set, must be sent in the apikey header.
	APIKey string
}

// CORSMiddleware tells the browser that the storefront origin may call us.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Allow ONLY the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, apikey, "+handlers.CartSessionHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", handlers.CartSessionHeader)

		// 4. Allow the HTTP methods we use in our API
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// 5. Handle the "Preflight" OPTIONS request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.Default()

	// --- APPLY THE CORS GUARD ---
	// This must be the very first thing the router uses
	router.Use(CORSMiddleware(opts.CORSOrigin))

	// --- Browser Navigations ---
	// The OAuth redirects are followed by the browser, which cannot send
	// the API key, so they sit outside the keyed group.
	browser := router.Group("/v1/auth")
	{
		browser.GET("/oauth/:provider", h.OAuthStart)
		browser.GET("/callback", h.OAuthCallback)
	}

	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyMiddleware(opts.APIKey))
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		requireAuth := middleware.AuthMiddleware(h.Gateway)

		// --- Auth Routes ---
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", h.SignUp)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/logout", requireAuth, h.Logout)
			authGroup.GET("/me", requireAuth, h.Me)
			authGroup.POST("/callback", requireAuth, h.CompleteOAuth)
		}

		// --- Public Product Routes ---
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)

		// --- Cart Routes (Anonymous Or Signed In) ---
		cartGroup := v1.Group("/cart")
		cartGroup.Use(middleware.OptionalAuth(h.Gateway))
		{
			cartGroup.GET("", h.GetCart)
			cartGroup.DELETE("", h.ClearCart)
			cartGroup.POST("/items", h.AddToCart)
			cartGroup.PUT("/items/:product_id", h.UpdateCartItem)
			cartGroup.DELETE("/items/:product_id", h.DeleteCartItem)
			cartGroup.POST("/checkout", h.Checkout)
		}

		// --- Order Routes (Login Required) ---
		orders := v1.Group("/orders")
		orders.Use(requireAuth)
		{
			orders.GET("", h.GetMyOrders)
			orders.GET("/:id", h.GetOrder)
		}

		// --- Admin-Only Routes ---
		adminGroup := v1.Group("/admin")
		adminGroup.Use(requireAuth)
		adminGroup.Use(middleware.AdminMiddleware(h.Gateway))
		{
			adminGroup.GET("/dashboard", h.GetDashboard)
			adminGroup.GET("/stats", h.GetStats)

			adminGroup.GET("/orders", h.GetAllOrders)
			adminGroup.PATCH("/orders/:id/status", h.UpdateOrderStatus)

			adminGroup.GET("/products", h.GetAllProducts)
			adminGroup.POST("/products", h.CreateProduct)
			adminGroup.PUT("/products/:id", h.UpdateProduct)
			adminGroup.DELETE("/products/:id", h.DeleteProduct)
		}
	}

	return router
}
