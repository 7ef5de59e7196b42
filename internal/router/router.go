package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/piataonline/market-api/internal/config"
	"github.com/piataonline/market-api/internal/handler"
	"github.com/piataonline/market-api/internal/middleware"
)

// Handlers groups every handler the router needs so RegisterRoutes
// stays a single call site in main.
type Handlers struct {
	Auth     *handler.AuthHandler
	Stalls   *handler.StallHandler
	Products *handler.ProductHandler
	Orders   *handler.OrderHandler
	Reviews  *handler.ReviewHandler
	Messages *handler.MessageHandler
	Admin    *handler.AdminHandler
}

// RegisterRoutes wires all endpoints onto the provided Echo instance.
// Three route classes exist: public browsing (rate limited and served
// through the Redis response cache), authentication, and protected
// endpoints behind JWTAuth. Admin routes additionally require the
// admin flag carried in the access token.
func RegisterRoutes(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Authentication endpoints. Login exchanges a third-party identity
	// token for an access/refresh pair; refresh rotates the refresh
	// token; logout revokes it.
	auth := e.Group("/v1/auth", rateLimit)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public catalog browsing. No authentication; cached and rate
	// limited so anonymous traffic cannot melt the database.
	public := e.Group("/v1", rateLimit, cache)
	public.GET("/stalls", h.Stalls.List)
	public.GET("/stalls/:id", h.Stalls.Get)
	public.GET("/stalls/:id/products", h.Stalls.ListProducts)
	public.GET("/stalls/:id/reviews", h.Reviews.List)
	public.GET("/products/:id", h.Products.Get)

	// Protected endpoints: anything acting as a specific user.
	protected := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	protected.GET("/me", h.Auth.Me)
	protected.PUT("/me", h.Auth.UpdateMe)

	protected.POST("/stalls", h.Stalls.Create)
	protected.GET("/stalls/mine", h.Stalls.Mine)
	protected.PUT("/stalls/:id", h.Stalls.Update)
	protected.GET("/stalls/:id/orders", h.Orders.ListForStall)

	protected.POST("/products", h.Products.Create)
	protected.PUT("/products/:id", h.Products.Update)
	protected.DELETE("/products/:id", h.Products.Delete)

	protected.POST("/orders", h.Orders.Create)
	protected.GET("/orders", h.Orders.ListMine)
	protected.GET("/orders/:id", h.Orders.Get)
	protected.PATCH("/orders/:id/status", h.Orders.UpdateStatus)

	protected.POST("/stalls/:id/reviews", h.Reviews.Create)
	protected.POST("/stalls/:id/messages", h.Messages.Create)
	protected.GET("/stalls/:id/messages", h.Messages.ListThread)
	protected.GET("/stalls/:id/messages/threads", h.Messages.ListThreads)

	// Back office: admin flag required on top of a valid token.
	admin := e.Group("/v1/admin", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireAdmin())
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/orders", h.Admin.ListOrders)
}
