package services

import (
	"context"
	"fmt"
	"insightai_backend/config"
	"insightai_backend/models"
	"insightai_backend/pkg/logging"
	"insightai_backend/platform/cache"
	"insightai_backend/repository"
	"insightai_backend/utils"
	"time"

	"golang.org/x/sync/singleflight"
)

const summaryPrompt = `You are an expert interview analyst.
Read the following interview transcript and produce a JSON object with:
- "text": a concise summary (3-6 sentences) of what was discussed.
- "key_points": an array of the most important takeaways.
Respond with JSON only.

Transcript:
`

// SummaryService produces the transcript summary. Concurrent triggers for
// the same record are collapsed in-process by singleflight and across
// processes by the conditional status claim.
type SummaryService struct {
	recordRepo   repository.TranscriptionRepository
	llm          LLMClient
	events       EventSink
	cacheService cache.CacheService
	timeout      time.Duration
	sf           singleflight.Group
}

func NewSummaryService(
	recordRepo repository.TranscriptionRepository,
	llm LLMClient,
	events EventSink,
	cacheService cache.CacheService,
	cfg *config.Config) *SummaryService {
	return &SummaryService{
		recordRepo:   recordRepo,
		llm:          llm,
		events:       events,
		cacheService: cacheService,
		timeout:      cfg.InsightTimeout,
	}
}

func (s *SummaryService) Summarize(ctx context.Context, ownerID, recordID string) (*models.SummaryResult, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("%w: record %s", ErrNotFound, recordID)
	}
	if record.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if record.TranscriptionText == "" {
		return nil, fmt.Errorf("%w: record %s has no transcript yet", ErrValidation, recordID)
	}

	res, err, _ := s.sf.Do(recordID, func() (interface{}, error) {
		return s.summarize(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.SummaryResult), nil
}

func (s *SummaryService) summarize(ctx context.Context, record *models.TranscriptionRecord) (*models.SummaryResult, error) {
	// trivial transcripts get the canned placeholder, no LLM call
	if IsTrivialTranscript(record.TranscriptionText) {
		result := &models.SummaryResult{Text: placeholderSummaryText}
		if err := s.recordRepo.UpdateSummary(ctx, record.ID, models.StatusCompleted, result.Text, ""); err != nil {
			return nil, err
		}
		s.invalidateChatContext(record.ID)
		return result, nil
	}

	won, err := s.claim(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: summary for %s", ErrConflict, record.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var raw string
	err = utils.Retry(ctx, 3, 2*time.Second, func() error {
		var callErr error
		raw, callErr = s.llm.Complete(ctx, summaryPrompt+record.TranscriptionText)
		return callErr
	})
	if err != nil {
		if updErr := s.recordRepo.UpdateSummary(ctx, record.ID, models.StatusError, "", err.Error()); updErr != nil {
			logging.Logger.Error("fail writing summary error", "recordID", record.ID, "error", updErr)
		}
		s.publish(models.EventSummaryFailed, record, models.StatusError, err.Error())
		return nil, err
	}

	var result models.SummaryResult
	if err := utils.DecodeLooseJSON(raw, &result); err != nil {
		// the wrap tier makes this effectively unreachable for the
		// summary schema, but persist what the model said regardless
		result = models.SummaryResult{Text: raw}
	}
	if result.Text == "" {
		result.Text = raw
	}

	if err := s.recordRepo.UpdateSummary(ctx, record.ID, models.StatusCompleted, result.Text, ""); err != nil {
		return nil, err
	}
	s.invalidateChatContext(record.ID)
	s.publish(models.EventSummaryCompleted, record, models.StatusCompleted, "")
	return &result, nil
}

func (s *SummaryService) claim(ctx context.Context, recordID string) (bool, error) {
	won, err := s.recordRepo.ClaimStatus(ctx, recordID, "summary_status", models.StatusPending, models.StatusProcessing)
	if err != nil || won {
		return won, err
	}
	// a failed summary may be retried
	won, err = s.recordRepo.ClaimStatus(ctx, recordID, "summary_status", models.StatusError, models.StatusProcessing)
	if err != nil || won {
		return won, err
	}
	// so may a completed one: summarizing again replaces the old text
	return s.recordRepo.ClaimStatus(ctx, recordID, "summary_status", models.StatusCompleted, models.StatusProcessing)
}

func (s *SummaryService) invalidateChatContext(recordID string) {
	if err := s.cacheService.DelCache(chatContextCacheKey(recordID)); err != nil {
		logging.Logger.Error("fail invalidating chat context cache", "recordID", recordID, "error", err)
	}
}

func (s *SummaryService) publish(eventType models.TranscriptionEventType, record *models.TranscriptionRecord, status, message string) {
	event := &models.TranscriptionEvent{
		Type:     eventType,
		RecordID: record.ID,
		UserID:   record.OwnerID,
		Status:   status,
		Message:  message,
	}
	if err := s.events.PublishTranscriptionEvent(event); err != nil {
		logging.Logger.Error("fail publishing event", "recordID", record.ID, "type", eventType, "error", err)
	}
}
