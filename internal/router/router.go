package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/backoffice-api/internal/config"
	"github.com/noah-isme/backoffice-api/internal/handler"
	"github.com/noah-isme/backoffice-api/internal/middleware"
	"github.com/noah-isme/backoffice-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	OffererHandler             *handler.OffererHandler
	VenueHandler               *handler.VenueHandler
	PublicAccountHandler       *handler.UserHandler
	BackofficeUserHandler      *handler.UserHandler
	BookingHandler             *handler.BookingHandler
	FinanceHandler             *handler.FinanceHandler
	OfferValidationRuleHandler *handler.OfferValidationRuleHandler
	ProviderHandler            *handler.ProviderHandler
	ActionHistoryHandler       *handler.ActionHistoryHandler
	AutocompleteHandler        *handler.AutocompleteHandler
	HealthChecks               map[string]func(context.Context) error
	JWTMiddleware              fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())
	app.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	backoffice := app.Group("/backoffice", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	}, jwtMiddleware, middleware.RequireRole("admin"))

	if deps.OffererHandler != nil {
		deps.OffererHandler.Register(backoffice.Group("/pro/offerers"))
	}
	if deps.VenueHandler != nil {
		deps.VenueHandler.Register(backoffice.Group("/pro/venues"))
	}
	if deps.ProviderHandler != nil {
		deps.ProviderHandler.Register(backoffice.Group("/pro/providers"))
	}

	// Accounts
	if deps.PublicAccountHandler != nil {
		deps.PublicAccountHandler.Register(backoffice.Group("/public-accounts"))
	}
	if deps.BackofficeUserHandler != nil {
		deps.BackofficeUserHandler.Register(backoffice.Group("/admin/bo-users"))
	}

	if deps.BookingHandler != nil {
		deps.BookingHandler.Register(backoffice.Group("/bookings"))
	}
	if deps.FinanceHandler != nil {
		deps.FinanceHandler.Register(backoffice.Group("/finance"))
	}
	if deps.OfferValidationRuleHandler != nil {
		deps.OfferValidationRuleHandler.Register(backoffice.Group("/offer-validation-rules"))
	}
	if deps.ActionHistoryHandler != nil {
		deps.ActionHistoryHandler.Register(backoffice.Group("/action-history"))
	}

	// Autocomplete fields fire on every keystroke
	if deps.AutocompleteHandler != nil {
		autocomplete := backoffice.Group("/autocomplete", middleware.RateLimit("autocomplete", cfg.AutocompleteRateLimit, time.Second))
		deps.AutocompleteHandler.Register(autocomplete)
	}
}
