package routes

import (
	"insightai_backend/handlers"

	"github.com/gofiber/fiber/v2"
)

func RegisterChatRoutes(app *fiber.App, chatHandler *handlers.ChatHandler, auth fiber.Handler) {
	chats := app.Group("/api/chat", auth)
	chats.Post("/:id/questions", chatHandler.Ask)
	chats.Get("/:id/history", chatHandler.History)
}
