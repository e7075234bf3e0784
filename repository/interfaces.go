package repository

import (
	"context"
	"encoding/json"
	"insightai_backend/models"
	"time"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.UploadSession) error
	GetByID(ctx context.Context, sessionID string) (*models.UploadSession, error)
	RecordChunk(ctx context.Context, sessionID string, index int) error
	UpdateFileInfo(ctx context.Context, sessionID, fileName, mimeType string) error
	// ClaimStatus flips status from->to and reports whether this caller won
	// the transition. Used to serialize racing finalize calls.
	ClaimStatus(ctx context.Context, sessionID, from, to string) (bool, error)
	ListExpired(ctx context.Context, before time.Time) ([]*models.UploadSession, error)
	Delete(ctx context.Context, sessionID string) error
}

type TranscriptionRepository interface {
	Create(ctx context.Context, record *models.TranscriptionRecord) error
	GetByID(ctx context.Context, id string) (*models.TranscriptionRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.TranscriptionRecord, error)

	// ClaimStatus is the at-most-once gate for each pipeline step: the
	// field goes from->to only if it still holds from.
	ClaimStatus(ctx context.Context, id, field, from, to string) (bool, error)

	UpdateTranscription(ctx context.Context, id, status, text string, processedBytes int64) error
	AppendTranscription(ctx context.Context, id, status, textDelta string, processedBytes int64) error
	SetTranscriptionError(ctx context.Context, id, message string) error

	UpdateSummary(ctx context.Context, id, status, text, errMsg string) error
	UpdateAnalysis(ctx context.Context, id, status string, data json.RawMessage, errMsg string) error
}

type ChatRepository interface {
	Create(ctx context.Context, node *models.ChatNode) error
	GetByRecordID(ctx context.Context, recordID string) ([]*models.ChatNode, error)
	GetLastNode(ctx context.Context, recordID string) (*models.ChatNode, error)
}
