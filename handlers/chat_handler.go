package handlers

import (
	"insightai_backend/models"
	"insightai_backend/services"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Ask answers a question about one record. The caller sends the full
// conversation each turn; the last message must be from the user.
func (h *ChatHandler) Ask(c *fiber.Ctx) error {
	var req models.ChatReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.chatService.Ask(c.Context(), userID(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, resp)
}

func (h *ChatHandler) History(c *fiber.Ctx) error {
	nodes, err := h.chatService.History(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, nodes)
}
