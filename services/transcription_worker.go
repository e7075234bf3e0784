package services

import (
	"context"
	"encoding/json"
	"errors"
	"insightai_backend/models"
	"insightai_backend/pkg/logging"
	"insightai_backend/platform/cache"
	"insightai_backend/platform/queue"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	queuePollInterval     = 2 * time.Second
	sessionSweepInterval  = 10 * time.Minute
	continuationTaskLimit = 15 * time.Minute
)

// TranscriptionWorker drains the continuation queue. Oversized files get
// their leading slice transcribed inline; the rest arrives here one slice
// per task, each task re-enqueueing the next until the file is done.
type TranscriptionWorker struct {
	mq            cache.MessageQueue
	transcription *TranscriptionService
	upload        *UploadService
}

func NewTranscriptionWorker(mq cache.MessageQueue, transcription *TranscriptionService, upload *UploadService) *TranscriptionWorker {
	return &TranscriptionWorker{
		mq:            mq,
		transcription: transcription,
		upload:        upload,
	}
}

// Run polls the queue until ctx is cancelled. Intended to be started as a
// goroutine from bootstrap.
func (w *TranscriptionWorker) Run(ctx context.Context) {
	logging.Logger.Info("transcription worker started")
	for {
		select {
		case <-ctx.Done():
			logging.Logger.Info("transcription worker stopped")
			return
		default:
		}

		raw, err := w.mq.PopFromQueue(queue.TranscriptionQueue)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				logging.Logger.Error("fail popping transcription task", "error", err)
			}
			select {
			case <-ctx.Done():
			case <-time.After(queuePollInterval):
			}
			continue
		}

		w.handle(ctx, raw)
	}
}

func (w *TranscriptionWorker) handle(ctx context.Context, raw interface{}) {
	payload, ok := raw.(string)
	if !ok {
		logging.Logger.Error("unexpected queue payload type", "payload", raw)
		return
	}

	var task models.TranscriptionTask
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		logging.Logger.Error("fail decoding transcription task", "payload", payload, "error", err)
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, continuationTaskLimit)
	defer cancel()

	if err := w.transcription.ProcessTask(taskCtx, task); err != nil {
		logging.Logger.Error("fail processing transcription task",
			"recordID", task.RecordID, "offset", task.Offset, "error", err)
	}
}

// RunSessionJanitor expires abandoned upload sessions and deletes their
// orphaned chunks on a fixed interval.
func (w *TranscriptionWorker) RunSessionJanitor(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleaned, err := w.upload.CleanupExpired(ctx)
			if err != nil {
				logging.Logger.Error("fail cleaning expired sessions", "error", err)
				continue
			}
			if cleaned > 0 {
				logging.Logger.Info("expired upload sessions cleaned", "count", cleaned)
			}
		}
	}
}
