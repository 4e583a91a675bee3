package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/ofcdigitalhawks/audirifa/internal/handler"    // import the handlers that implement business logic
	"github.com/ofcdigitalhawks/audirifa/internal/middleware" // import middleware for rate limiting and admin authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the public storefront endpoints under /api.  The
// rate limiter guards the endpoints a browser hammers (checkout and the
// status poll); the webhook is deliberately left outside the limiter so
// gateway retries are never throttled away.
func RegisterAPI(e *echo.Echo, checkout *handler.CheckoutHandler, webhook *handler.WebhookHandler, status *handler.StatusHandler, purchases *handler.PurchasesHandler, tickets *handler.TicketsHandler, limiter echo.MiddlewareFunc) {
	api := e.Group("/api")

	// Checkout endpoints create gateway charges.
	api.POST("/gerar-pix", checkout.GeneratePix, limiter)
	api.POST("/gerar-pix-roleta", checkout.GenerateUpsellPix, limiter)

	// The gateway pushes payment confirmations and infraction notices here.
	api.POST("/webhook", webhook.Receive)

	// The storefront polls this while the customer has the PIX code open.
	api.GET("/verificar-status", status.Check, limiter)

	// Customer self-service lookup by phone number.
	api.GET("/minhas-compras", purchases.List)

	// Sold-numbers board.
	api.GET("/bilhetes", tickets.List)
}

// RegisterAdmin registers the operator panel endpoints.  Login is the only
// unauthenticated route; everything else requires the ADMIN bearer token
// minted by it, including the raffle draw.
func RegisterAdmin(e *echo.Echo, admin *handler.AdminHandler, draw *handler.DrawHandler, jwtSecret string) {
	e.POST("/api/admin/auth", admin.Auth)

	g := e.Group("/api/admin")
	// Apply the AdminAuth middleware to the protected group using the provided secret.
	g.Use(middleware.AdminAuth(jwtSecret))
	g.GET("/payments", admin.ListPayments)
	g.GET("/tickets", admin.ListTickets)
	g.GET("/webhook-logs", admin.ListWebhookLogs)
	g.POST("/clean-duplicates", admin.CleanDuplicates)

	// The draw mutates nothing but decides a prize; operators only.
	draws := e.Group("/api/sorteio")
	draws.Use(middleware.AdminAuth(jwtSecret))
	draws.GET("", draw.Run)
}
