package routes

import (
	"insightai_backend/handlers"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func SetupWebSocketRoutes(app *fiber.App, wsHandler *handlers.WSHandler, auth fiber.Handler) {
	ws := app.Group("/ws")

	// WebSocket route; auth runs before the upgrade so the handler sees
	// the authenticated user id in its locals
	ws.Use("/transcriptions/:id", auth, wsHandler.WebSocketUpgrade)
	ws.Get("/transcriptions/:id", websocket.New(wsHandler.HandleTranscriptionEvents))
}
