package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/mobipent/internal/config"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/handler"
	"github.com/mansoorceksport/mobipent/internal/middleware"
	"github.com/mansoorceksport/mobipent/internal/service"
	"github.com/mansoorceksport/mobipent/internal/telemetry"
)

// RootMessage is the GET / liveness response
const RootMessage = "MobiPent dev backend running"

// AppDependencies holds the dependencies required to start the dev server
type AppDependencies struct {
	Config   config.DevServerConfig
	Accounts domain.AccountRepository
	Tracing  bool
}

// NewApp creates the stand-in backend with the same endpoints as the real one
func NewApp(deps AppDependencies) *fiber.App {
	accountService := service.NewAccountService(deps.Accounts, deps.Config.JWTSecret, deps.Config.TokenExpiry)

	authHandler := handler.NewAuthHandler(accountService)
	analyzeHandler := handler.NewAnalyzeHandler(deps.Config.MaxUploadSizeMB)

	app := fiber.New(fiber.Config{
		AppName:      "MobiPent Dev Backend",
		BodyLimit:    int(deps.Config.MaxUploadSizeMB * 1024 * 1024),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	if deps.Tracing {
		app.Use(telemetry.FiberMiddleware())
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": RootMessage})
	})

	app.Post("/signup", authHandler.Signup)
	app.Post("/login", authHandler.Login)

	analyze := app.Group("/analyze")
	analyze.Use(middleware.VerifyBearer(accountService))
	analyze.Post("/tool", analyzeHandler.Tool)
	analyze.Post("/comprehensive", analyzeHandler.Comprehensive)

	return app
}

// customErrorHandler renders errors as {"detail": ...} like the real backend
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("[DevServer] Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"detail": err.Error(),
	})
}
