package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"docshelf/internal/http/middleware"
	"docshelf/internal/service"
)

// HealthCheck reports readiness: it fails when the database is unreachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check with no dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Everything except health probes and user registration requires a requester
// identity (middleware.Identity).
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, catSvc service.CategoryService, userSvc service.UserService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/users", CreateUser(userSvc))
	app.Delete("/users/:id", middleware.Identity(), DeleteUser(userSvc))

	docs := app.Group("/documents", middleware.Identity())
	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/", UploadDocument(docSvc))
	docs.Post("/batch", BatchUploadDocuments(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Get("/:id/download", DownloadDocument(docSvc))
	docs.Get("/:id/content", DownloadDocumentContent(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))

	app.Get("/dashboard/summary", middleware.Identity(), DashboardSummary(docSvc))

	cats := app.Group("/categories", middleware.Identity())
	cats.Get("/", ListCategories(catSvc))
	cats.Post("/", CreateCategory(catSvc))
	cats.Delete("/:id", DeleteCategory(catSvc))
}
