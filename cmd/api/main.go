package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docshelf/docs"
	"docshelf/internal/config"
	"docshelf/internal/database"
	"docshelf/internal/database/migration"
	handlers "docshelf/internal/http/handler"
	"docshelf/internal/http/middleware"
	"docshelf/internal/logger"
	"docshelf/internal/mailer"
	"docshelf/internal/otel"
	"docshelf/internal/repository/postgres"
	"docshelf/internal/service"
	"docshelf/internal/storage"
)

// @title DocShelf API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracing(shutdownCtx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.Local, cfg.Database.Host); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		zlog.Fatal("failed to initialize object storage", zap.Error(err))
	}

	mail := mailer.NewSMTP(cfg.SMTP)

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	catRepo := postgres.NewCategoryPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	docSvc := service.NewDocumentService(objStore, docRepo, catRepo, userRepo, mail, zlog, cfg.SiteURL)
	catSvc := service.NewCategoryService(catRepo, zlog)
	userSvc := service.NewUserService(userRepo, objStore, zlog)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		zlog.Fatal("failed to register metrics", zap.Error(err))
	}

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(zlog))
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, docSvc, catSvc, userSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	zlog.Info("starting server", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
