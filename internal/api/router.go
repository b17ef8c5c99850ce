package api

import (
	"time"

	"freight-insure/docs"
	"freight-insure/internal/api/handlers"
	"freight-insure/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type RouterConfig struct {
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// UploadsDir is served under /uploads when documents are kept on local disk.
	UploadsDir string
}

func SetupRouter(
	intakeHandler *handlers.IntakeHandler,
	cfg RouterConfig,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// importing docs registers the swagger document
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	if cfg.UploadsDir != "" {
		appLogger.Info("Serving uploads", zap.String("path", cfg.UploadsDir))
		app.Static("/uploads", cfg.UploadsDir)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1", middleware.OperatorToken(appLogger))

	sessions := api.Group("/intake")
	sessions.Post("", intakeHandler.CreateSession)
	sessions.Get("/:id", intakeHandler.GetSession)
	sessions.Delete("/:id", intakeHandler.DiscardSession)
	sessions.Put("/:id/step", intakeHandler.GoToStep)
	sessions.Post("/:id/submit", intakeHandler.SubmitStep)
	sessions.Put("/:id/branches/identity", intakeHandler.SelectIdentityBranch)
	sessions.Put("/:id/branches/vehicle", intakeHandler.SelectVehicleBranch)
	sessions.Post("/:id/documents/:kind", intakeHandler.UploadDocument)
	sessions.Delete("/:id/documents/:kind", intakeHandler.RemoveDocument)
	sessions.Patch("/:id/fields/identity", intakeHandler.EditIdentity)
	sessions.Patch("/:id/fields/vehicle", intakeHandler.EditVehicle)

	return app
}
