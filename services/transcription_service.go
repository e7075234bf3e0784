package services

import (
	"context"
	"errors"
	"fmt"
	"insightai_backend/config"
	"insightai_backend/models"
	"insightai_backend/pkg/logging"
	"insightai_backend/platform/cache"
	"insightai_backend/platform/queue"
	"insightai_backend/repository"
	"insightai_backend/utils"
	"time"

	"gorm.io/gorm"
)

const (
	transcribeAttempts = 3
	transcribeBackoff  = 2 * time.Second

	// how many times one continuation slice may run before a persistent
	// failure marks the record as error
	maxTaskAttempts = 3
)

// TranscriptionService turns an assembled media object into transcript
// text. Media at or under the direct-size threshold is transcribed in one
// call; larger media gets its leading slice transcribed immediately
// (status=partial) and the rest is worked off the queue with a persisted
// byte checkpoint, so a restart resumes instead of starting over.
type TranscriptionService struct {
	recordRepo repository.TranscriptionRepository
	store      ObjectStore
	speech     SpeechClient
	taskQueue  cache.MessageQueue
	events     EventSink

	directSize int64
	timeout    time.Duration
}

func NewTranscriptionService(
	recordRepo repository.TranscriptionRepository,
	store ObjectStore,
	speech SpeechClient,
	taskQueue cache.MessageQueue,
	events EventSink,
	cfg *config.Config) *TranscriptionService {
	return &TranscriptionService{
		recordRepo: recordRepo,
		store:      store,
		speech:     speech,
		taskQueue:  taskQueue,
		events:     events,
		directSize: cfg.DirectTranscribeSize,
		timeout:    cfg.TranscribeTimeout,
	}
}

// Start claims the record and transcribes the media, or the leading slice
// of it. A record in status error may be re-triggered; processing/partial/
// completed may not.
func (s *TranscriptionService) Start(ctx context.Context, ownerID, recordID string) (*models.TranscriptionRecord, error) {
	record, err := s.getOwned(ctx, ownerID, recordID)
	if err != nil {
		return nil, err
	}

	won, err := s.recordRepo.ClaimStatus(ctx, recordID, "status", models.StatusPending, models.StatusProcessing)
	if err != nil {
		return nil, err
	}
	if !won {
		// allow retry after a failed run
		won, err = s.recordRepo.ClaimStatus(ctx, recordID, "status", models.StatusError, models.StatusProcessing)
		if err != nil {
			return nil, err
		}
	}
	if !won {
		return nil, fmt.Errorf("%w: transcription for %s", ErrConflict, recordID)
	}

	s.publish(models.EventTranscriptionProcessing, record, models.StatusProcessing, "", 0)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	size, found, err := s.store.StatObject(ctx, record.MediaKey)
	if err != nil || !found {
		msg := fmt.Sprintf("media object %s unavailable", record.MediaKey)
		if err != nil {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		s.fail(ctx, record, msg)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, msg)
	}

	if size <= s.directSize {
		return s.transcribeWhole(ctx, record, size)
	}
	return s.transcribeLeadingSlice(ctx, record, size)
}

func (s *TranscriptionService) transcribeWhole(ctx context.Context, record *models.TranscriptionRecord, size int64) (*models.TranscriptionRecord, error) {
	data, err := s.store.GetObject(ctx, record.MediaKey)
	if err != nil {
		s.fail(ctx, record, fmt.Sprintf("failed to fetch media: %v", err))
		return nil, err
	}

	text, err := s.transcribeWithRetry(ctx, data, record.FileName)
	if err != nil {
		s.fail(ctx, record, err.Error())
		return nil, err
	}

	if err := s.recordRepo.UpdateTranscription(ctx, record.ID, models.StatusCompleted, text, size); err != nil {
		return nil, err
	}
	s.publish(models.EventTranscriptionCompleted, record, models.StatusCompleted, "", size)
	return s.recordRepo.GetByID(ctx, record.ID)
}

func (s *TranscriptionService) transcribeLeadingSlice(ctx context.Context, record *models.TranscriptionRecord, size int64) (*models.TranscriptionRecord, error) {
	data, err := s.store.GetObjectRange(ctx, record.MediaKey, 0, s.directSize)
	if err != nil {
		s.fail(ctx, record, fmt.Sprintf("failed to fetch leading slice: %v", err))
		return nil, err
	}

	text, err := s.transcribeWithRetry(ctx, data, record.FileName)
	if err != nil {
		s.fail(ctx, record, err.Error())
		return nil, err
	}

	processed := int64(len(data))
	if err := s.recordRepo.UpdateTranscription(ctx, record.ID, models.StatusPartial, text, processed); err != nil {
		return nil, err
	}
	s.publish(models.EventTranscriptionPartial, record, models.StatusPartial, "", processed)

	task := models.TranscriptionTask{
		RecordID:  record.ID,
		MediaKey:  record.MediaKey,
		Offset:    processed,
		FileSize:  size,
		CreatedAt: time.Now(),
	}
	if err := s.taskQueue.PushToQueue(queue.TranscriptionQueue, task); err != nil {
		// the immediate slice is already durable; the continuation can be
		// re-triggered, so report but do not fail the request
		logging.Logger.Error("fail enqueueing continuation task", "recordID", record.ID, "error", err)
	}
	return s.recordRepo.GetByID(ctx, record.ID)
}

// ProcessTask handles one continuation slice popped off the queue.
func (s *TranscriptionService) ProcessTask(ctx context.Context, task models.TranscriptionTask) error {
	record, err := s.recordRepo.GetByID(ctx, task.RecordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Warn("continuation task for missing record dropped", "recordID", task.RecordID)
		return nil
	} else if err != nil {
		return err
	}
	if record.Status != models.StatusPartial {
		// stale task: the record moved on (error, retry, completion)
		logging.Logger.Warn("continuation task dropped, record not partial",
			"recordID", task.RecordID, "status", record.Status)
		return nil
	}
	if record.ProcessedBytes != task.Offset {
		// checkpoint moved past this task, likely a duplicate delivery
		logging.Logger.Warn("continuation task dropped, checkpoint mismatch",
			"recordID", task.RecordID, "taskOffset", task.Offset, "checkpoint", record.ProcessedBytes)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.store.GetObjectRange(ctx, task.MediaKey, task.Offset, s.directSize)
	if err != nil {
		return s.retryOrFail(ctx, record, task, fmt.Sprintf("failed to fetch slice at %d: %v", task.Offset, err))
	}

	text, err := s.transcribeWithRetry(ctx, data, record.FileName)
	if err != nil {
		return s.retryOrFail(ctx, record, task, err.Error())
	}

	processed := task.Offset + int64(len(data))
	done := processed >= task.FileSize
	status := models.StatusPartial
	if done {
		status = models.StatusCompleted
	}
	if err := s.recordRepo.AppendTranscription(ctx, record.ID, status, "\n"+text, processed); err != nil {
		return err
	}

	if done {
		s.publish(models.EventTranscriptionCompleted, record, models.StatusCompleted, "", processed)
		return nil
	}

	s.publish(models.EventTranscriptionPartial, record, models.StatusPartial, "", processed)
	next := models.TranscriptionTask{
		RecordID:  task.RecordID,
		MediaKey:  task.MediaKey,
		Offset:    processed,
		FileSize:  task.FileSize,
		CreatedAt: time.Now(),
	}
	return s.taskQueue.PushToQueue(queue.TranscriptionQueue, next)
}

// Get returns a record for its owner.
func (s *TranscriptionService) Get(ctx context.Context, ownerID, recordID string) (*models.TranscriptionRecord, error) {
	return s.getOwned(ctx, ownerID, recordID)
}

func (s *TranscriptionService) List(ctx context.Context, ownerID string) ([]*models.TranscriptionRecord, error) {
	return s.recordRepo.ListByOwner(ctx, ownerID)
}

// MediaURL issues a short-lived presigned download for the media object.
func (s *TranscriptionService) MediaURL(ctx context.Context, ownerID, recordID string) (string, error) {
	record, err := s.getOwned(ctx, ownerID, recordID)
	if err != nil {
		return "", err
	}
	return s.store.GeneratePresignedGetDownload(record.MediaKey, 15*time.Minute)
}

// retryOrFail re-enqueues a failed continuation slice with its attempt
// counter bumped, up to maxTaskAttempts. Only then does the record go to
// error; the partial transcript written so far stays durable throughout.
func (s *TranscriptionService) retryOrFail(ctx context.Context, record *models.TranscriptionRecord, task models.TranscriptionTask, message string) error {
	if task.Attempt+1 < maxTaskAttempts {
		next := task
		next.Attempt++
		next.CreatedAt = time.Now()
		if err := s.taskQueue.PushToQueue(queue.TranscriptionQueue, next); err == nil {
			logging.Logger.Warn("continuation slice failed, requeued",
				"recordID", task.RecordID, "offset", task.Offset, "attempt", next.Attempt, "error", message)
			return nil
		}
		logging.Logger.Error("fail requeueing continuation slice", "recordID", task.RecordID, "offset", task.Offset)
	}
	s.fail(ctx, record, message)
	return errors.New(message)
}

func (s *TranscriptionService) getOwned(ctx context.Context, ownerID, recordID string) (*models.TranscriptionRecord, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: record %s", ErrNotFound, recordID)
	} else if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return record, nil
}

func (s *TranscriptionService) transcribeWithRetry(ctx context.Context, data []byte, filename string) (string, error) {
	var text string
	err := utils.Retry(ctx, transcribeAttempts, transcribeBackoff, func() error {
		var err error
		text, err = s.speech.Transcribe(ctx, data, filename)
		return err
	})
	return text, err
}

func (s *TranscriptionService) fail(ctx context.Context, record *models.TranscriptionRecord, message string) {
	if err := s.recordRepo.SetTranscriptionError(ctx, record.ID, message); err != nil {
		logging.Logger.Error("fail writing transcription error", "recordID", record.ID, "error", err)
	}
	s.publish(models.EventTranscriptionFailed, record, models.StatusError, message, 0)
}

func (s *TranscriptionService) publish(eventType models.TranscriptionEventType, record *models.TranscriptionRecord, status, message string, processed int64) {
	event := &models.TranscriptionEvent{
		Type:     eventType,
		RecordID: record.ID,
		UserID:   record.OwnerID,
		Status:   status,
		Message:  message,
	}
	if processed > 0 && record.FileSize > 0 {
		event.Progress = &models.ProgressInfo{
			ProcessedBytes: processed,
			TotalBytes:     record.FileSize,
			Percentage:     int(processed * 100 / record.FileSize),
		}
	}
	if err := s.events.PublishTranscriptionEvent(event); err != nil {
		logging.Logger.Error("fail publishing event", "recordID", record.ID, "type", eventType, "error", err)
	}
}
