package routes

import (
	"insightai_backend/handlers"

	"github.com/gofiber/fiber/v2"
)

func RegisterUploadRoutes(app *fiber.App, uploadHandler *handlers.UploadHandler, auth fiber.Handler) {
	uploads := app.Group("/api/uploads", auth)
	uploads.Post("/:session_id/chunks", uploadHandler.ReceiveChunk)
	uploads.Post("/:session_id/finalize", uploadHandler.Finalize)
}
