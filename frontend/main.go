package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	fiberadapter "github.com/awslabs/aws-lambda-go-api-proxy/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"fx-tuner/backend/shared"
	"fx-tuner/frontend/handlers"
	"fx-tuner/frontend/middleware"
)

var fiberLambda *fiberadapter.FiberLambda

func newApp(h *handlers.Handlers, log *zap.Logger) *fiber.App {
	app := fiber.New()

	app.Use(recover.New())
	app.Use(logger.New())

	// HTTPS redirect middleware
	app.Use(func(c *fiber.Ctx) error {
		// Check X-Forwarded-Proto header (set by API Gateway/Load Balancer)
		proto := c.Get("X-Forwarded-Proto", "https")
		if proto == "http" {
			return c.Redirect("https://"+c.Hostname()+c.OriginalURL(), 301)
		}
		return c.Next()
	})

	setupRoutes(app, h, log)
	return app
}

func setupRoutes(app *fiber.App, h *handlers.Handlers, log *zap.Logger) {
	// Public routes
	app.Get("/", h.IndexHandler)

	// API proxy routes
	api := app.Group("/api")
	api.Use(middleware.APIAuth(log))
	api.Get("/targets", h.ListTargetsHandler)
	api.Get("/targets/:index/parameters", h.TargetParametersHandler)
	api.Post("/targets/:index/adjust", h.AdjustTargetHandler)
	api.Get("/config/check", h.ConfigCheckHandler)
	api.Get("/logs", h.GetAuditLogsHandler)
	api.Get("/logs/groups", h.ListLogGroupsHandler)

	// Auth routes
	app.Post("/auth/login", h.LoginHandler)
	app.Get("/auth/logout", h.LogoutHandler)
}

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return fiberLambda.ProxyWithContext(ctx, req)
}

func main() {
	log, err := shared.NewLogger(shared.GetEnv("LOG_LEVEL", "info") == "debug")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	opts := handlers.Options{
		APIEndpoint:   os.Getenv("API_ENDPOINT"),
		AuditLogGroup: os.Getenv("AUDIT_LOG_GROUP"),
		Logger:        log,
	}
	if cfg, err := config.LoadDefaultConfig(context.Background()); err != nil {
		log.Warn("AWS config unavailable, audit log viewer disabled", zap.Error(err))
	} else {
		opts.Logs = cloudwatchlogs.NewFromConfig(cfg)
	}

	app := newApp(handlers.New(opts), log)

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		// Running in Lambda
		fiberLambda = fiberadapter.New(app)
		lambda.Start(handler)
	} else {
		// Running locally
		log.Fatal("Server stopped", zap.Error(app.Listen(shared.GetEnv("LISTEN_ADDR", ":3000"))))
	}
}
