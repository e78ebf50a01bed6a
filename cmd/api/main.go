package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Champion2005/amicooked-sub000/config"
	custommw "github.com/Champion2005/amicooked-sub000/pkg/api/middleware"
	"github.com/Champion2005/amicooked-sub000/pkg/container"
	custommiddleware "github.com/Champion2005/amicooked-sub000/pkg/middleware"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log.Printf("configuration loaded (environment: %s)", cfg.APIEnvironment)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("failed to initialize Sentry: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}
	defer c.Close()

	// Cron jobs: nightly usage-window prune and stats.
	if err := c.CronManager.SetupJobs(); err != nil {
		log.Fatalf("failed to setup cron jobs: %v", err)
	}
	c.CronManager.Start()

	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	planRateLimiter := custommiddleware.NewPlanRateLimiter()
	authRateLimiter := custommiddleware.NewRateLimiter(5, 2)
	webhookRateLimiter := custommiddleware.NewRateLimiter(100, 20)

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(ec echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger.Info("request", "method", ec.Request().Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}

	e.Use(c.Metrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(middleware.Gzip())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))
	e.Use(globalRateLimiter.Middleware())

	// Public endpoints
	e.GET("/", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]any{
			"name":        "AmICooked API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(ec echo.Context) error {
		ctx, cancel := context.WithTimeout(ec.Request().Context(), 2*time.Second)
		defer cancel()

		if err := c.Store.Redis.Ping(ctx).Err(); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"store":  "down",
			})
		}
		return ec.JSON(http.StatusOK, map[string]any{
			"status": "healthy",
			"store":  "up",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")

	v1.GET("/ping", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]string{"message": "pong"})
	})

	// Authentication (public)
	authRoutes := v1.Group("/auth")
	{
		authRoutes.GET("/github", c.AuthHandler.LoginURL, authRateLimiter.Middleware())
		authRoutes.POST("/callback", c.AuthHandler.Callback, authRateLimiter.Middleware())
	}

	// Stripe webhook (public; the signature header is the authentication)
	v1.POST("/billing/webhook", c.BillingHandler.Webhook, webhookRateLimiter.Middleware())

	// Protected routes
	protected := v1.Group("")
	protected.Use(custommw.JWTMiddleware(cfg.JWTSecret))
	protected.Use(planRateLimiter.Middleware())
	{
		protected.POST("/analyze", c.AnalysisHandler.Analyze)
		protected.GET("/analysis/latest", c.AnalysisHandler.GetLatest)
		protected.DELETE("/analysis/latest", c.AnalysisHandler.DeleteLatest)
		protected.POST("/projects", c.AnalysisHandler.RecommendProjects)

		protected.POST("/chat/message", c.ChatHandler.SendMessage)
		protected.POST("/chat/end-session", c.ChatHandler.EndSession)
		protected.POST("/chat/clear-history", c.ChatHandler.ClearHistory)

		protected.GET("/usage", c.UsageHandler.GetSummary)

		protected.POST("/billing/checkout", c.BillingHandler.CreateCheckout)
		protected.GET("/billing/plan", c.BillingHandler.GetPlan)

		protected.DELETE("/account/data", c.AccountHandler.DeleteData)
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("AmICooked API starting on %s", address)

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	c.CronManager.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("server stopped")
}
