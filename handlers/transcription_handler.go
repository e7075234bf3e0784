package handlers

import (
	"insightai_backend/services"

	"github.com/gofiber/fiber/v2"
)

type TranscriptionHandler struct {
	transcriptionService *services.TranscriptionService
}

func NewTranscriptionHandler(transcriptionService *services.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{transcriptionService: transcriptionService}
}

// Start triggers transcription of a finalized upload. Oversized files come
// back in status partial while the remainder is processed in background.
func (h *TranscriptionHandler) Start(c *fiber.Ctx) error {
	record, err := h.transcriptionService.Start(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, record)
}

func (h *TranscriptionHandler) Get(c *fiber.Ctx) error {
	record, err := h.transcriptionService.Get(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, record)
}

func (h *TranscriptionHandler) List(c *fiber.Ctx) error {
	records, err := h.transcriptionService.List(c.Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, records)
}

// MediaURL returns a short-lived presigned download link for the media
// object behind a record.
func (h *TranscriptionHandler) MediaURL(c *fiber.Ctx) error {
	url, err := h.transcriptionService.MediaURL(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.Map{"url": url})
}
