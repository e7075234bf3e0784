package handlers

import (
	"insightai_backend/models"
	"insightai_backend/services"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	uploadService *services.UploadService
}

func NewUploadHandler(uploadService *services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// ReceiveChunk takes one multipart fragment. Form fields: chunk (file),
// chunk_index, total_chunks, and on index 0 also file_name and mime_type.
func (h *UploadHandler) ReceiveChunk(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")

	chunkIndex, err := strconv.Atoi(c.FormValue("chunk_index"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "chunk_index must be an integer")
	}
	totalChunks, err := strconv.Atoi(c.FormValue("total_chunks"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "total_chunks must be an integer")
	}

	fileHeader, err := c.FormFile("chunk")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "chunk file required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return respondError(c, err)
	}

	resp, err := h.uploadService.ReceiveChunk(c.Context(), userID(c), services.ChunkUpload{
		SessionID:   sessionID,
		ChunkIndex:  chunkIndex,
		TotalChunks: totalChunks,
		FileName:    c.FormValue("file_name"),
		MimeType:    c.FormValue("mime_type"),
		Data:        data,
	})
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, resp)
}

// Finalize assembles the received chunks into the media object and creates
// the transcription record.
func (h *UploadHandler) Finalize(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")

	var req models.FinalizeUploadReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.uploadService.Finalize(c.Context(), userID(c), sessionID, req.TotalChunks)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, resp)
}
