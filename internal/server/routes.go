package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = ErrorEnvelope(cfg.DevMode)

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key", // Look for API key in X-API-Key header
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil // Simple string comparison
			},
		}))
	}

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)               // Health check endpoint
	v1.POST("/echo", h.Echo)                  // Echo endpoint for testing
	v1.GET("/status", h.Status)               // Connection and backlog status
	v1.GET("/events/recent", h.RecentEvents)  // Recent classified events
	v1.POST("/stream/retry", h.StreamRetry)   // Manual reconnect after give-up

	// Watched-address endpoints; mutations are rate limited since each one
	// can force a reconnect cycle on the push feed
	watchGroup := v1.Group("/watch")
	watchGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(2),   // 2 requests per second
		Burst:     5,               // Allow burst of 5 requests
		ExpiresIn: 2 * time.Minute, // Rate limit window
	})))
	watchGroup.GET("", h.WatchList)               // List watched addresses
	watchGroup.POST("/:address", h.WatchAdd)      // Start watching an address
	watchGroup.DELETE("/:address", h.WatchRemove) // Stop watching an address

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
