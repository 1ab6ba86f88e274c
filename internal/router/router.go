package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/classwork-labs/classwork-api/internal/config"
	"github.com/classwork-labs/classwork-api/internal/handler"
	"github.com/classwork-labs/classwork-api/internal/middleware"
	"github.com/classwork-labs/classwork-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler    *handler.AssignmentHandler
	SubmissionHandler    *handler.SubmissionHandler
	PasswordResetHandler *handler.PasswordResetHandler
	JWTMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Password reset stays public but rate limited
	if deps.PasswordResetHandler != nil {
		resetGroup := api.Group("/password-reset", middleware.RateLimit("password-reset", 5, time.Minute))
		deps.PasswordResetHandler.Register(resetGroup)
	}

	if deps.AssignmentHandler != nil {
		assignmentGroup := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignmentGroup)
	}

	if deps.SubmissionHandler != nil {
		submissionGroup := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissionGroup)
	}
}
