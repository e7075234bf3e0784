package routes

import (
	"insightai_backend/handlers"

	"github.com/gofiber/fiber/v2"
)

func RegisterTranscriptionRoutes(
	app *fiber.App,
	transcriptionHandler *handlers.TranscriptionHandler,
	insightHandler *handlers.InsightHandler,
	auth fiber.Handler) {
	records := app.Group("/api/transcriptions", auth)
	records.Get("/", transcriptionHandler.List)
	records.Get("/:id", transcriptionHandler.Get)
	records.Get("/:id/media-url", transcriptionHandler.MediaURL)
	records.Post("/:id/transcribe", transcriptionHandler.Start)
	records.Post("/:id/summarize", insightHandler.Summarize)
	records.Post("/:id/analyze", insightHandler.Analyze)
}
