package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"insightai_backend/bootstrap"
	"insightai_backend/config"
	"insightai_backend/middleware"
	"insightai_backend/pkg/logging"
	"insightai_backend/routes"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	logging.Init()

	cfg := config.LoadConfig()

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		log.Fatal(err)
	}

	server := fiber.New(fiber.Config{
		// chunks arrive as multipart bodies
		BodyLimit: 64 * 1024 * 1024,
	})
	server.Use(middleware.Logger())
	server.Use(middleware.CORS())

	auth := middleware.RequireAuth(cfg.JWTSecret)
	routes.RegisterUploadRoutes(server, app.Handlers.UploadHandler, auth)
	routes.RegisterTranscriptionRoutes(server, app.Handlers.TranscriptionHandler, app.Handlers.InsightHandler, auth)
	routes.RegisterChatRoutes(server, app.Handlers.ChatHandler, auth)
	routes.SetupWebSocketRoutes(server, app.Handlers.WSHandler, auth)

	server.Get("/health", func(c *fiber.Ctx) error {
		if err := app.Infrastructure.DB.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.StartWorkers()

	port := cfg.HttpPort
	if port == "" {
		port = "3000"
	}
	go func() {
		logging.Logger.Info("Server running", "port", port)
		if err := server.Listen(":" + port); err != nil {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logging.Logger.Info("shutting down")

	if err := server.Shutdown(); err != nil {
		logging.Logger.Error("fail shutting down server", "error", err)
	}
	if err := app.Shutdown(); err != nil {
		logging.Logger.Error("fail shutting down app", "error", err)
	}
}
