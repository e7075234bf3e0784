package services

import (
	"context"
	"insightai_backend/models"
	"time"
)

// ObjectStore is the slice of the storage service the pipeline needs.
// platform/storage.Service satisfies it; tests use an in-memory fake.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	GetObjectRange(ctx context.Context, key string, offset, length int64) ([]byte, error)
	StatObject(ctx context.Context, key string) (size int64, found bool, err error)
	RemoveObject(ctx context.Context, key string) error
	GeneratePresignedGetDownload(key string, expiry time.Duration) (string, error)
	GenerateMediaKey(filename string) string
}

// LLMClient produces one completion for one prompt.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SpeechClient turns audio bytes into text.
type SpeechClient interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// EventSink receives pipeline progress events.
type EventSink interface {
	PublishTranscriptionEvent(event *models.TranscriptionEvent) error
}
