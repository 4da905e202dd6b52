// Package httpapi wires the HTTP transport (Gin) to the stored-procedure
// gateway, middleware, and route handlers. It centralizes cross-cutting
// concerns such as correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aml-logistics/aml-api/internal/auth"
	"github.com/aml-logistics/aml-api/internal/config"
	"github.com/aml-logistics/aml-api/internal/http/handlers"
	"github.com/aml-logistics/aml-api/internal/http/middleware"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability, CORS and security headers, health and metrics
// endpoints, the static upload tree, and the role-area API groups under /api.
//
// Middleware order matters:
//  1. RequestID: generate/propagate correlation id
//  2. Logger: structured request logs
//  3. Recovery: capture panics after logger
//  4. Body size limiter
//  5. Gzip compression
//  6. Metrics
//  7. CORS and security headers
//
// The auth rate limiter applies to /api/auth only; everything else under /api
// sits behind the bearer-token guard.
func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, tokens *auth.TokenProvider, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 2) Structured request logging
	r.Use(middleware.Logger())

	// 3) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 4) Global body size limit (10 MiB; photo uploads arrive base64-encoded
	// in JSON bodies)
	r.Use(limitBody(10 << 20))

	// 5) Compression
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.Envelope{
			Success:         false,
			ResponseCode:    handlers.Code(http.StatusNotFound, handlers.ModuleSystem, handlers.SpecificNotFound),
			ResponseMessage: "Route tidak ditemukan",
		})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.Envelope{
			Success:         false,
			ResponseCode:    handlers.Code(http.StatusMethodNotAllowed, handlers.ModuleSystem, handlers.SpecificInvalid),
			ResponseMessage: "Method tidak diizinkan",
		})
	})

	// Liveness/health with DB round trip
	r.GET("/health", h.Health)

	// Uploaded pickup photos
	r.Static("/uploads", cfg.UploadDir)

	requireAuth := middleware.RequireAuth(tokens)

	// Login endpoints sit behind a token bucket keyed by client IP.
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateRPS, cfg.AuthRateBurst, middleware.KeyByIP())

	authGroup := r.Group("/api/auth")
	authGroup.Use(authLimiter.Handler())
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/forgot-password", h.ForgotPassword)
	}

	customer := r.Group("/api/customer", requireAuth)
	{
		customer.GET("/dashboard", h.CustomerDashboard)
		customer.GET("/orders", h.CustomerOrders)
		customer.GET("/orders/:sttNumber/tracking", h.CustomerOrderTracking)
		customer.POST("/pickup", h.CustomerCreatePickup)
		customer.GET("/pickup/history", h.CustomerPickupHistory)
		customer.GET("/pickup/:id", h.CustomerPickupDetail)
		customer.GET("/reports", h.CustomerReports)
		customer.GET("/invoice", h.CustomerInvoices)
		customer.GET("/history", h.CustomerOrderHistory)
		customer.GET("/profile", h.CustomerProfile)
		customer.PUT("/profile", h.CustomerUpdateProfile)
	}

	driver := r.Group("/api/driver", requireAuth)
	{
		driver.GET("/dashboard", h.DriverDashboard)
		driver.GET("/pickup", h.DriverPickupList)
		driver.GET("/pickup/:id", h.DriverPickupDetail)
		driver.PUT("/pickup/:id/accept", h.DriverPickupAccept)
		driver.PUT("/pickup/:id/status", h.DriverPickupStatus)
		driver.POST("/pickup/:id/confirm", h.DriverPickupConfirm)
		driver.GET("/packages", h.DriverPackages)
		driver.POST("/scan/koli", h.DriverScanKoli)
		driver.POST("/scan/stt/hold", h.DriverHoldSTT)
		driver.POST("/location/update", h.DriverLocationUpdate)
		driver.GET("/notifications", h.DriverNotifications)
		driver.PUT("/notifications/read-all", h.DriverNotificationReadAll)
		driver.PUT("/notifications/:id/read", h.DriverNotificationRead)
		driver.GET("/profile", h.DriverProfile)
	}

	loading := r.Group("/api/loading", requireAuth)
	{
		loading.GET("/dashboard", h.LoadingDashboard)
		loading.GET("/orders", h.LoadingOrders)
		loading.GET("/manifests/:manifestId/stts", h.LoadingManifestSTTs)
		loading.GET("/stts/:sttNumber/kolis", h.LoadingSTTKolis)
		loading.GET("/history", h.LoadingHistory)
		loading.POST("/scan/koli", h.LoadingScanKoli)
		loading.GET("/profile", h.LoadingProfile)
	}

	agent := r.Group("/api/agent", requireAuth)
	{
		agent.GET("/dashboard", h.AgentDashboard)
		agent.GET("/orders", h.AgentOrders)
		agent.PUT("/tasks/:id/start", h.AgentTaskStart)
		agent.PUT("/tasks/:id/complete", h.AgentTaskComplete)
		agent.GET("/stts/:sttNumber/kolis", h.AgentSTTKolis)
		agent.POST("/scan/koli", h.AgentScanKoli)
		agent.POST("/delivery/:sttnumber/confirm", h.AgentDeliveryConfirm)
		agent.GET("/monitoring", h.AgentMonitoring)
		agent.GET("/profile", h.AgentProfile)
	}

	tracking := r.Group("/api/tracking", requireAuth)
	{
		tracking.GET("/:sttNumber", h.TrackingDetail)
	}

	device := r.Group("/api/device", requireAuth)
	{
		device.POST("/register", h.DeviceRegister)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
