package main // Entry point package

import (
	"context" // Context for startup database calls
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/ofcdigitalhawks/audirifa/internal/config"     // Internal config loader
	"github.com/ofcdigitalhawks/audirifa/internal/database"   // Database connection and schema
	"github.com/ofcdigitalhawks/audirifa/internal/gateway"    // PIX gateway client
	"github.com/ofcdigitalhawks/audirifa/internal/handler"    // HTTP handlers
	"github.com/ofcdigitalhawks/audirifa/internal/middleware" // Rate limiting middleware
	"github.com/ofcdigitalhawks/audirifa/internal/queue"      // RabbitMQ publisher and consumer
	"github.com/ofcdigitalhawks/audirifa/internal/repository" // Data access layer
	"github.com/ofcdigitalhawks/audirifa/internal/router"     // Internal router setup
	"github.com/ofcdigitalhawks/audirifa/internal/service"    // Reconciler and draw workflows
	"github.com/ofcdigitalhawks/audirifa/internal/tracking"   // Conversion tracking client
)

func main() {
	_ = godotenv.Load() // Load .env when present; real env vars win

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis backs the public rate limiter; nil means the limiter fails open.
	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	paymentRepo := repository.NewPaymentRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	logRepo := repository.NewWebhookLogRepo(db)

	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayClientKey, cfg.GatewayClientSecret)
	tracker := tracking.NewClient(cfg.TrackingURL)

	reconciler := service.NewReconciler(paymentRepo, ticketRepo, logRepo, tracker, queue.PublishPaymentApproved)
	draw := service.NewDraw(ticketRepo)

	// Drain approved-payment events in the background; the consumer keeps
	// reconnecting on broker trouble.
	go queue.StartPaymentConsumer()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewCheckoutHandler(cfg, gw, paymentRepo, ticketRepo, tracker),
		handler.NewWebhookHandler(reconciler),
		handler.NewStatusHandler(gw, reconciler, ticketRepo),
		handler.NewPurchasesHandler(ticketRepo),
		handler.NewTicketsHandler(ticketRepo),
		limiter,
	)
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, paymentRepo, ticketRepo, logRepo), handler.NewDrawHandler(draw), cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
