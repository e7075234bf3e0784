package handlers

import (
	"context"
	"encoding/json"
	"insightai_backend/pkg/logging"
	"insightai_backend/platform/events"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WSHandler struct {
	eventPublisher *events.EventPublisher
}

func NewWSHandler(eventPublisher *events.EventPublisher) *WSHandler {
	return &WSHandler{eventPublisher: eventPublisher}
}

func (h *WSHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.Status(400).JSON(fiber.Map{"success": false, "error": "Not a websocket request"})
}

// HandleTranscriptionEvents streams pipeline events for one record: status
// transitions, partial-transcript progress, summary and analysis results.
func (h *WSHandler) HandleTranscriptionEvents(c *websocket.Conn) {
	recordID := c.Params("id")
	// set by the auth middleware before the upgrade
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
		return
	}

	logging.Logger.Info("WebSocket connected",
		"recordID", recordID,
		"userID", userID,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, err := h.eventPublisher.SubscribeTranscriptionEvents(ctx)
	if err != nil {
		logging.Logger.Error("Failed to subscribe to events", "error", err)
		if err := c.WriteMessage(websocket.TextMessage, []byte(`{"error":"Failed to subscribe"}`)); err != nil {
			return
		}
		return
	}

	err = c.WriteJSON(fiber.Map{
		"type":      "connected",
		"message":   "WebSocket connected successfully",
		"record_id": recordID,
	})
	if err != nil {
		return
	}

	for {
		select {
		case event := <-eventChan:
			if event == nil {
				return
			}
			if event.RecordID != recordID {
				continue
			}
			// only the authenticated owner's events are streamed
			if event.UserID != userID {
				continue
			}
			data, _ := json.Marshal(event)
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Logger.Error("Failed to send WebSocket message", "error", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
