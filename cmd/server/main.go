// Package main is the entry point for the GroupMapper service.
// It initializes the database connection, runs schema migrations, and wires
// all HTTP routes.
package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/avissapr/groupmapper/internal/database"
	"github.com/avissapr/groupmapper/internal/handlers"
	"github.com/avissapr/groupmapper/internal/logging"
	"github.com/avissapr/groupmapper/internal/middleware"
	"github.com/avissapr/groupmapper/internal/services"
	"github.com/avissapr/groupmapper/internal/validation"
)

func main() {
	logger := logging.NewLogger()

	// Connect to PostgreSQL and verify connectivity.
	cfg, err := database.DefaultConfig()
	if err != nil {
		log.Fatalf("Invalid database configuration: %v", err)
	}
	database.MustConnect(cfg)
	defer database.Close()

	// Apply any pending schema migrations before serving traffic.
	if err := database.RunMigrations(); err != nil {
		logger.Critical("failed to run migrations", err)
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Shared validation limits; override via construction if a deployment
	// needs different batch ceilings.
	validate := validation.NewService(nil)

	groupService := services.NewGroupService(validate, logger)
	mappingService := services.NewMappingService(validate, logger)

	groupHandler := handlers.NewGroupHandler(groupService, logger)
	mappingHandler := handlers.NewMappingHandler(mappingService, logger)

	app := fiber.New(fiber.Config{
		AppName: "GroupMapper",
	})

	// Panic recovery first, so the logger sees a 500 instead of a dropped
	// connection.
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.SecureHeaders())

	// Health check for load balancers and container orchestrators.
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if !database.IsConnected() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Group lifecycle. The search route must precede /:id so "search" is not
	// parsed as an id.
	api.Post("/groups", groupHandler.Create)
	api.Get("/groups", groupHandler.List)
	api.Get("/groups/search", groupHandler.Search)
	api.Post("/groups/bulk-update", groupHandler.BulkUpdate)
	api.Get("/groups/:id", groupHandler.Get)
	api.Patch("/groups/:id", groupHandler.Update)
	api.Delete("/groups/:id", groupHandler.Delete)
	api.Get("/groups/:id/users", mappingHandler.GroupUsers)

	// Mapping lifecycle.
	api.Post("/mappings", mappingHandler.Create)
	api.Get("/mappings", mappingHandler.List)
	api.Post("/mappings/bulk", mappingHandler.BulkCreate)
	api.Post("/mappings/bulk-update", mappingHandler.BulkUpdate)
	api.Post("/mappings/activate", mappingHandler.Activate)
	api.Post("/mappings/deactivate", mappingHandler.Deactivate)
	api.Get("/mappings/:id", mappingHandler.Get)
	api.Patch("/mappings/:id", mappingHandler.Update)
	api.Delete("/mappings/:id", mappingHandler.Delete)

	// Per-user projection.
	api.Get("/users/:user_id/groups", mappingHandler.UserGroups)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("GroupMapper server starting on port " + port)
	if err := app.Listen(":" + port); err != nil {
		logger.Critical("server stopped", err)
		log.Fatalf("Failed to start server: %v", err)
	}
}
