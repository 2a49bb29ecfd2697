// Package main provides the validation API server implementation.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/reqarchitect/validation/pkg/engine"
	"github.com/reqarchitect/validation/pkg/eventbus"
	"github.com/reqarchitect/validation/pkg/evaluators"
	"github.com/reqarchitect/validation/pkg/persistence"
	"github.com/reqarchitect/validation/pkg/provider"
	"github.com/reqarchitect/validation/pkg/services"
	"github.com/reqarchitect/validation/pkg/web"
)

type API struct {
	logger       *slog.Logger
	persistence  persistence.Persistence
	client       provider.Client
	eventBus     eventbus.EventBus
	jwtSecret    string
	cycleTimeout time.Duration
	validate     *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	client provider.Client,
	eventBus eventbus.EventBus,
	jwtSecret string,
	cycleTimeout time.Duration,
) *API {
	return &API{
		logger:       logger,
		persistence:  persistence,
		client:       client,
		eventBus:     eventBus,
		jwtSecret:    jwtSecret,
		cycleTimeout: cycleTimeout,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	registry := evaluators.DefaultRegistry(a.logger)
	validationEngine := engine.NewEngine(a.persistence, a.client, registry, a.eventBus, a.cycleTimeout, a.logger)

	validationService := services.NewValidation(a.persistence, validationEngine)
	ruleService := services.NewRule(a.persistence)
	exceptionService := services.NewException(a.persistence)

	handlers := web.NewAPIHandlers(validationService, ruleService, exceptionService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("ReqArchitect Validation API")
	})

	app.Get("/health", handlers.HealthCheck)

	auth := web.NewAuthMiddleware(a.jwtSecret)
	mutating := web.RequireRole(web.RoleOwner, web.RoleAdmin)

	v := app.Group("/validation", auth)
	v.Post("/run", handlers.RunValidation, mutating)
	v.Get("/status", handlers.GetStatus)
	v.Get("/issues", handlers.GetIssues)
	v.Post("/issues/:id/resolve", handlers.ResolveIssue, mutating)
	v.Get("/scorecard", handlers.GetScorecard)
	v.Get("/traceability-matrix", handlers.GetTraceabilityMatrix)
	v.Get("/history", handlers.GetHistory)

	v.Get("/rules", handlers.GetRules)
	v.Post("/rules", handlers.CreateRule, mutating)
	v.Get("/rules/:id", handlers.GetRule)
	v.Patch("/rules/:id", handlers.UpdateRule, mutating)

	v.Get("/exceptions", handlers.GetExceptions)
	v.Post("/exceptions", handlers.CreateException, mutating)
	v.Delete("/exceptions/:id", handlers.DeleteException, mutating)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
